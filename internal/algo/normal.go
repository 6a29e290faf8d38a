package algo

import "math"

// normalCDF computes the standard normal CDF using the error function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// normalQuantile computes the inverse standard normal CDF (probit function).
// The Abramowitz and Stegun rational approximation is polished with two
// Newton steps on normalCDF.
func normalQuantile(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	if p == 0.5 {
		return 0
	}

	var z float64
	if p < 0.5 {
		z = -rationalApproxForNormalQuantile(math.Sqrt(-2 * math.Log(p)))
	} else {
		z = rationalApproxForNormalQuantile(math.Sqrt(-2 * math.Log(1-p)))
	}
	for i := 0; i < 2; i++ {
		pdf := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
		if pdf == 0 {
			break
		}
		z -= (normalCDF(z) - p) / pdf
	}
	return z
}

func rationalApproxForNormalQuantile(t float64) float64 {
	// Coefficients from Abramowitz and Stegun
	c := []float64{2.515517, 0.802853, 0.010328}
	d := []float64{1.432788, 0.189269, 0.001308}

	return t - (c[0]+c[1]*t+c[2]*t*t)/(1+d[0]*t+d[1]*t*t+d[2]*t*t*t)
}
