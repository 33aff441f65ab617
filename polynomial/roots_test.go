package polynomial

import (
	"math"
	"math/cmplx"
	"math/rand"
	"sort"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSgn(t *testing.T) {
	test.That(t, Sgn(0), test.ShouldEqual, 1.0)
	test.That(t, Sgn(math.Copysign(0, -1)), test.ShouldEqual, 1.0)
	test.That(t, Sgn(1e-300), test.ShouldEqual, 1.0)
	test.That(t, Sgn(-1e-300), test.ShouldEqual, -1.0)
	test.That(t, Sgn(math.Inf(-1)), test.ShouldEqual, -1.0)
}

func TestSolveQuadratic(t *testing.T) {
	for _, tc := range []struct {
		name    string
		a, b, c float64
		roots   []float64
	}{
		{"two roots", 1, -4, 3, []float64{1, 3}},
		{"negative leading", -1, 4, -3, []float64{1, 3}},
		{"no linear term", 1, 0, -4, []float64{-2, 2}},
		{"repeated", 1, -2, 1, []float64{1, 1}},
		{"linear", 0, 2, 4, []float64{-2}},
		{"constant", 0, 0, 4, nil},
		{"complex", 1, 0, 1, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			roots := SolveQuadratic(tc.a, tc.b, tc.c)
			test.That(t, len(roots), test.ShouldEqual, len(tc.roots))
			for i := range roots {
				test.That(t, roots[i], test.ShouldAlmostEqual, tc.roots[i], 1e-12)
			}
		})
	}
}

func TestSolveQuadraticCancellation(t *testing.T) {
	// x^2 - 1e8 x + 1 has a tiny root that the textbook formula loses entirely.
	roots := SolveQuadratic(1, -1e8, 1)
	test.That(t, len(roots), test.ShouldEqual, 2)
	test.That(t, roots[0], test.ShouldAlmostEqual, 1e-8, 1e-20)
	test.That(t, roots[1], test.ShouldAlmostEqual, 1e8, 1e-4)
}

func TestSolveCubic(t *testing.T) {
	for _, tc := range []struct {
		name       string
		a, b, c, d float64
		roots      []float64
	}{
		{"three distinct", 1, -6, 11, -6, []float64{1, 2, 3}},
		{"scaled", 2, -12, 22, -12, []float64{1, 2, 3}},
		{"triple", 1, -6, 12, -8, []float64{2, 2, 2}},
		{"double above", 1, 0, -3, 2, []float64{-2, 1, 1}},
		{"double below", 1, 0, -3, -2, []float64{-1, -1, 2}},
		{"single", 1, 0, 0, -1, []float64{1}},
		{"single negative", 1, 0, 1, 10, []float64{-2}},
		{"degenerate", 0, 1, -4, 3, []float64{1, 3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			roots := SolveCubic(tc.a, tc.b, tc.c, tc.d)
			test.That(t, len(roots), test.ShouldEqual, len(tc.roots))
			for i := range roots {
				test.That(t, roots[i], test.ShouldAlmostEqual, tc.roots[i], 1e-9)
			}
		})
	}
}

// companionRoots returns the real eigenvalues of the companion matrix of x^3 + a*x^2 + b*x + c.
func companionRoots(t *testing.T, a, b, c float64) []float64 {
	t.Helper()
	m := mat.NewDense(3, 3, []float64{
		-a, -b, -c,
		1, 0, 0,
		0, 1, 0,
	})
	var eig mat.Eigen
	ok := eig.Factorize(m, mat.EigenNone)
	test.That(t, ok, test.ShouldBeTrue)
	var out []float64
	for _, v := range eig.Values(nil) {
		if math.Abs(imag(v)) < 1e-9*math.Max(1, cmplx.Abs(v)) {
			out = append(out, real(v))
		}
	}
	sort.Float64s(out)
	return out
}

func TestSolveCubicAgainstEigenvalues(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := rng.Float64()*20 - 10
		b := rng.Float64()*20 - 10
		c := rng.Float64()*20 - 10

		roots := SolveCubic(1, a, b, c)
		expected := companionRoots(t, a, b, c)
		test.That(t, sort.Float64sAreSorted(roots), test.ShouldBeTrue)
		// Near-double roots may be classified differently by the two methods.
		if len(roots) != len(expected) {
			continue
		}
		test.That(t, floats.EqualApprox(roots, expected, 1e-6), test.ShouldBeTrue)
		for _, r := range roots {
			test.That(t, r*r*r+a*r*r+b*r+c, test.ShouldAlmostEqual, 0, 1e-6*(1+math.Abs(r*r*r)))
		}
	}
}
