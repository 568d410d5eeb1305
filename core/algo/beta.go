package algo

import "math"

// Iteration limits for the incomplete beta continued fraction.
const (
	betaMaxIterations = 200
	betaEpsilon       = 1e-14
	betaTiny          = 1e-30
)

// BetaCDF evaluates the cumulative distribution function of the Beta(a, b)
// distribution at x, i.e. the regularized incomplete beta function I_x(a, b).
// It uses the continued-fraction expansion with the standard symmetry split so
// the fraction converges quickly on either side of the mean.
func BetaCDF(x, a, b float64) float64 {
	if math.IsNaN(x) || a <= 0 || b <= 0 {
		return math.NaN()
	}
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(x, a, b) / a
	}
	return 1 - front*betaContinuedFraction(1-x, b, a)/b
}

// betaContinuedFraction evaluates the continued fraction for the incomplete
// beta function using the modified Lentz method.
func betaContinuedFraction(x, a, b float64) float64 {
	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < betaTiny {
		d = betaTiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= betaMaxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		// Even step.
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < betaTiny {
			d = betaTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betaTiny {
			c = betaTiny
		}
		d = 1 / d
		h *= d * c

		// Odd step.
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < betaTiny {
			d = betaTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betaTiny {
			c = betaTiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < betaEpsilon {
			break
		}
	}
	return h
}
