// Package poisson evaluates the Poisson mass function for real-valued counts.
// All evaluation happens in log-space so that large rates and large counts do
// not overflow.
package poisson

import "math"

const (
	lanczosG   = 607.0 / 128.0
	halfLog2Pi = 0.91893853320467274178032973640562
)

var lanczosCoefficients = [...]float64{
	0.99999999999999709182,
	57.156235665862923517,
	-59.597960355475491248,
	14.136097974741747174,
	-0.49191381609762019978,
	.33994649984811888699e-4,
	.46523628927048575665e-4,
	-.98374475304879564677e-4,
	.15808870322491248884e-3,
	-.21026444172410488319e-3,
	.21743961811521264320e-3,
	-.16431810653676389022e-3,
	.84418223983852743293e-4,
	-.26190838401581408670e-4,
	.36899182659531622704e-5,
}

// Coefficients of the rational approximation of 1/Γ(1+x) - 1 on [-0.5, 1.5].
const (
	invA0  = .611609510448141581788e-08
	invA1  = .624730830116465516210e-08
	invB1  = .203610414066806987300e+00
	invB2  = .266205348428949217746e-01
	invB3  = .493944979382446875238e-03
	invB4  = -.851419432440314906588e-05
	invB5  = -.643045481779353022248e-05
	invB6  = .992641840672773722196e-06
	invB7  = -.607761895722825260739e-07
	invB8  = .195755836614639731882e-09
	invP0  = .6116095104481415817861e-08
	invP1  = .6871674113067198736152e-08
	invP2  = .6820161668496170657918e-09
	invP3  = .4686843322948848031080e-10
	invP4  = .1572833027710446286995e-11
	invP5  = -.1249441572276366213222e-12
	invP6  = .4343529937408594255178e-14
	invQ1  = .3056961078365221025009e+00
	invQ2  = .5464213086042296536016e-01
	invQ3  = .4956830093825887312020e-02
	invQ4  = .2692369466186361192876e-03
	invC   = -.422784335098467139393487909917598e+00
	invC0  = .577215664901532860606512090082402e+00
	invC1  = -.655878071520253881077019515145390e+00
	invC2  = -.420026350340952355290039348754298e-01
	invC3  = .166538611382291489501700795102105e+00
	invC4  = -.421977345555443367482083012891874e-01
	invC5  = -.962197152787697356211492167234820e-02
	invC6  = .721894324666309954239501034044657e-02
	invC7  = -.116516759185906511211397108401839e-02
	invC8  = -.215241674114950972815729963053648e-03
	invC9  = .128050282388116186153198626328164e-03
	invC10 = -.201348547807882386556893914210218e-04
	invC11 = -.125049348214267065734535947383309e-05
	invC12 = .113302723198169588237412962033074e-05
	invC13 = -.205633841697760710345015413002057e-06
)

// LogGamma returns ln Γ(x) for x > 0 and NaN otherwise.
func LogGamma(x float64) float64 {
	switch {
	case math.IsNaN(x) || x <= 0:
		return math.NaN()
	case x < 0.5:
		return logGamma1p(x) - math.Log(x)
	case x <= 2.5:
		return logGamma1p((x - 0.5) - 0.5)
	case x <= 8:
		n := int(math.Floor(x - 1.5))
		prod := 1.0
		for i := 1; i <= n; i++ {
			prod *= x - float64(i)
		}
		return logGamma1p(x-float64(n+1)) + math.Log(prod)
	default:
		sum := lanczos(x)
		tmp := x + lanczosG + .5
		return ((x + .5) * math.Log(tmp)) - tmp + halfLog2Pi + math.Log(sum/x)
	}
}

func lanczos(x float64) float64 {
	sum := 0.0
	for i := len(lanczosCoefficients) - 1; i > 0; i-- {
		sum += lanczosCoefficients[i] / (x + float64(i))
	}
	return sum + lanczosCoefficients[0]
}

// logGamma1p returns ln Γ(1+x) for -0.5 <= x <= 1.5.
func logGamma1p(x float64) float64 {
	return -math.Log1p(invGamma1pm1(x))
}

// invGamma1pm1 returns 1/Γ(1+x) - 1 for -0.5 <= x <= 1.5.
func invGamma1pm1(x float64) float64 {
	t := x
	if x > 0.5 {
		t = (x - 0.5) - 0.5
	}

	var c float64
	if t < 0 {
		a := invA0 + t*invA1
		b := invB8
		b = invB7 + t*b
		b = invB6 + t*b
		b = invB5 + t*b
		b = invB4 + t*b
		b = invB3 + t*b
		b = invB2 + t*b
		b = invB1 + t*b
		b = 1.0 + t*b

		c = invC13 + t*(a/b)
		c = tail(c, t)
		c = invC + t*c
		if x > 0.5 {
			return t * c / x
		}
		return x * ((c + 0.5) + 0.5)
	}

	p := invP6
	p = invP5 + t*p
	p = invP4 + t*p
	p = invP3 + t*p
	p = invP2 + t*p
	p = invP1 + t*p
	p = invP0 + t*p

	q := invQ4
	q = invQ3 + t*q
	q = invQ2 + t*q
	q = invQ1 + t*q
	q = 1.0 + t*q

	c = invC13 + (p/q)*t
	c = tail(c, t)
	c = invC0 + t*c
	if x > 0.5 {
		return (t / x) * ((c - 0.5) - 0.5)
	}
	return x * c
}

// tail folds the shared C12..C1 Horner steps.
func tail(c, t float64) float64 {
	c = invC12 + t*c
	c = invC11 + t*c
	c = invC10 + t*c
	c = invC9 + t*c
	c = invC8 + t*c
	c = invC7 + t*c
	c = invC6 + t*c
	c = invC5 + t*c
	c = invC4 + t*c
	c = invC3 + t*c
	c = invC2 + t*c
	c = invC1 + t*c
	return c
}
