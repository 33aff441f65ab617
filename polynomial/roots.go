// Package polynomial finds the real roots of low degree polynomials.
//
// The solvers follow the closed forms used by the GNU Scientific Library (poly/solve_quadratic.c
// and poly/solve_cubic.c), including its convention that the sign of zero, positive or negative,
// is +1.
package polynomial

import (
	"math"
	"sort"
)

// Sgn returns -1 for negative x and +1 otherwise. Both +0 and -0 map to +1, unlike math.Copysign
// based sign helpers which report -1 for -0.
func Sgn(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return -1
}

// SolveQuadratic returns the real roots of a*x^2 + b*x + c = 0 in ascending order.
//
// When a is zero the equation is solved as a linear one, yielding a single root, or none if b is
// zero as well. A zero discriminant yields the repeated root twice. A negative discriminant
// yields no roots.
func SolveQuadratic(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}

	disc := b*b - 4*a*c
	switch {
	case disc > 0:
		if b == 0 {
			r := math.Sqrt(-c / a)
			return []float64{-r, r}
		}
		// q never cancels against b, so both roots keep full precision.
		q := -0.5 * (b + Sgn(b)*math.Sqrt(disc))
		r1 := q / a
		r2 := c / q
		if r1 < r2 {
			return []float64{r1, r2}
		}
		return []float64{r2, r1}
	case disc == 0:
		r := -0.5 * b / a
		return []float64{r, r}
	default:
		return nil
	}
}

// SolveCubic returns the real roots of a*x^3 + b*x^2 + c*x + d = 0 in ascending order. The result
// holds either one root or three (repeated roots are listed once per multiplicity). A zero
// leading coefficient is handed to SolveQuadratic.
func SolveCubic(a, b, c, d float64) []float64 {
	if a == 0 {
		return SolveQuadratic(b, c, d)
	}
	return solveMonicCubic(b/a, c/a, d/a)
}

// solveMonicCubic solves x^3 + a*x^2 + b*x + c = 0.
func solveMonicCubic(a, b, c float64) []float64 {
	q := a*a - 3*b
	r := 2*a*a*a - 9*a*b + 27*c

	bigQ := q / 9
	bigR := r / 54

	q3 := bigQ * bigQ * bigQ
	r2 := bigR * bigR

	// 729*r^2 == 2916*q^3 is R^2 == Q^3 scaled so it is exact for integer coefficients.
	cr2 := 729 * r * r
	cq3 := 2916 * q * q * q

	shift := a / 3

	if bigR == 0 && bigQ == 0 {
		return []float64{-shift, -shift, -shift}
	}

	if cr2 == cq3 {
		// Finite precision can miss some double roots, which then show up as a complex pair
		// close to the real axis and fall through to the single root branch.
		sqrtQ := math.Sqrt(bigQ)
		if bigR > 0 {
			return []float64{-2*sqrtQ - shift, sqrtQ - shift, sqrtQ - shift}
		}
		return []float64{-sqrtQ - shift, -sqrtQ - shift, 2*sqrtQ - shift}
	}

	if r2 < q3 {
		ratio := Sgn(bigR) * math.Sqrt(r2/q3)
		theta := math.Acos(ratio)
		norm := -2 * math.Sqrt(bigQ)
		roots := []float64{
			norm*math.Cos(theta/3) - shift,
			norm*math.Cos((theta+2*math.Pi)/3) - shift,
			norm*math.Cos((theta-2*math.Pi)/3) - shift,
		}
		sort.Float64s(roots)
		return roots
	}

	bigA := -Sgn(bigR) * math.Cbrt(math.Abs(bigR)+math.Sqrt(r2-q3))
	bigB := bigQ / bigA
	return []float64{bigA + bigB - shift}
}
