package poisson

import (
	"fmt"
	"math"
)

// exactStirlingErrors holds the Stirling error at z = 0, 0.5, 1.0, ..., 15.0.
var exactStirlingErrors = [...]float64{
	0.0,
	0.1534264097200273452913848,
	0.0810614667953272582196702,
	0.0548141210519176538961390,
	0.0413406959554092940938221,
	0.03316287351993628748511048,
	0.02767792568499833914878929,
	0.02374616365629749597132920,
	0.02079067210376509311152277,
	0.01848845053267318523077934,
	0.01664469118982119216319487,
	0.01513497322191737887351255,
	0.01387612882307074799874573,
	0.01281046524292022692424986,
	0.01189670994589177009505572,
	0.01110455975820691732662991,
	0.010411265261972096497478567,
	0.009799416126158803298389475,
	0.009255462182712732917728637,
	0.008768700134139385462952823,
	0.008330563433362871256469318,
	0.007934114564314020547248100,
	0.007573675487951840794972024,
	0.007244554301320383179543912,
	0.006942840107209529865664152,
	0.006665247032707682442354394,
	0.006408994188004207068439631,
	0.006171712263039457647532867,
	0.005951370112758847735624416,
	0.005746216513010115682023589,
	0.005554733551962801371038690,
}

// Distribution is a Poisson distribution with a fixed mean.
type Distribution struct {
	mean float64
}

// New creates a Poisson distribution with the given mean.
func New(mean float64) (Distribution, error) {
	if !(mean > 0) || math.IsInf(mean, 1) {
		return Distribution{}, fmt.Errorf("poisson mean must be positive and finite, got %v", mean)
	}
	return Distribution{mean: mean}, nil
}

// Mean returns the rate of the distribution.
func (d Distribution) Mean() float64 {
	return d.mean
}

// LogProbability returns ln P(X = x). The count may be any non-negative real,
// which lets callers pass weighted allele dosages. Negative counts have
// probability zero and yield -Inf.
func (d Distribution) LogProbability(x float64) float64 {
	return LogProbability(x, d.mean)
}

// Probability returns P(X = x).
func (d Distribution) Probability(x float64) float64 {
	return Probability(x, d.mean)
}

// LogProbability returns ln P(X = k) for a Poisson distribution with the given
// rate. It uses the saddle point expansion of Loader (2000), so it stays
// finite where Γ(k+1) or λ^k would overflow.
func LogProbability(k, lambda float64) float64 {
	switch {
	case math.IsNaN(k) || math.IsNaN(lambda) || lambda <= 0:
		return math.NaN()
	case k < 0 || math.IsInf(k, 1):
		return math.Inf(-1)
	case k == 0:
		return -lambda
	}
	return -stirlingError(k) - devianceParts(k, lambda) - halfLog2Pi - 0.5*math.Log(k)
}

// Probability returns P(X = k); 0 when the log-probability is -Inf.
func Probability(k, lambda float64) float64 {
	lp := LogProbability(k, lambda)
	if math.IsInf(lp, -1) {
		return 0
	}
	return math.Exp(lp)
}

// stirlingError returns ln Γ(z+1) - ((z+0.5) ln z - z + 0.5 ln 2π).
func stirlingError(z float64) float64 {
	if z < 15.0 {
		z2 := 2.0 * z
		if math.Floor(z2) == z2 {
			return exactStirlingErrors[int(z2)]
		}
		return LogGamma(z+1.0) - (z+0.5)*math.Log(z) + z - halfLog2Pi
	}
	z2 := z * z
	return (0.083333333333333333333 -
		(0.00277777777777777777778 -
			(0.00079365079365079365079365 -
				(0.000595238095238095238095238-
					0.0008417508417508417508417508/z2)/z2)/z2)/z2) / z
}

// devianceParts returns x ln(x/mu) + mu - x, using a series expansion when x
// and mu are close to keep the cancellation error small.
func devianceParts(x, mu float64) float64 {
	if math.Abs(x-mu) < 0.1*(x+mu) {
		d := x - mu
		v := d / (x + mu)
		s1 := v * d
		s := math.NaN()
		ej := 2.0 * x * v
		v *= v
		for j := 1; s1 != s; j++ {
			s = s1
			ej *= v
			s1 = s + ej/float64(j*2+1)
		}
		return s1
	}
	if x == 0 {
		return mu
	}
	return x*math.Log(x/mu) + mu - x
}
