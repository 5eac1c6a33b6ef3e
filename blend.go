package metaball

import "github.com/chewxy/math32"

// MinFunc is a minimum function for SDF blending.
type MinFunc func(a, b float32) float32

// MaxFunc is a maximum function for SDF blending.
type MaxFunc func(a, b float32) float32

// Min is the hard union of two fields. Blended shapes meet at a crease.
func Min(a, b float32) float32 { return math32.Min(a, b) }

// RoundMin returns a minimum function that uses a quarter-circle to join the two objects smoothly.
func RoundMin(k float32) MinFunc {
	return func(a, b float32) float32 {
		ux := math32.Max(k-a, 0)
		uy := math32.Max(k-b, 0)
		return math32.Max(k, math32.Min(a, b)) - math32.Sqrt(ux*ux+uy*uy)
	}
}

// ChamferMin returns a minimum function that makes a 45-degree chamfered edge (the diagonal of a square of size <r>).
func ChamferMin(k float32) MinFunc {
	return func(a, b float32) float32 {
		return math32.Min(math32.Min(a, b), (a-k+b)*sqrtHalf)
	}
}

// ExpMin returns a minimum function with exponential smoothing (k = 32).
func ExpMin(k float32) MinFunc {
	return func(a, b float32) float32 {
		return -math32.Log(math32.Exp(-k*a)+math32.Exp(-k*b)) / k
	}
}

// PolyMin returns a minimum function (Try k = 0.1, a bigger k gives a bigger fillet).
// This is the classic metaball blend.
func PolyMin(k float32) MinFunc {
	return func(a, b float32) float32 {
		return poly(a, b, k)
	}
}

// PolyMax returns a maximum function (Try k = 0.1, a bigger k gives a bigger fillet).
func PolyMax(k float32) MaxFunc {
	return func(a, b float32) float32 {
		return -poly(-a, -b, k)
	}
}

func poly(a, b, k float32) float32 {
	h := Clamp(0.5+0.5*(b-a)/k, 0.0, 1.0)
	return Mix(b, a, h) - k*h*(1.0-h)
}

const sqrtHalf = 0.7071067811865476

// Clamp x between a and b, assume a <= b
func Clamp(x, a, b float32) float32 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

// Mix does a linear interpolation from x to y, a = [0,1]
func Mix(x, y, a float32) float32 {
	return x + (a * (y - x))
}
