package indicators

// OBV is cumulative on-balance volume starting at 0 on the first bar.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// VolumeRatio compares the final volume with its window average, which
// includes the final bar. A zero average gives 1.0.
func VolumeRatio(volumes []float64, window int) (ratio, avg float64) {
	n := len(volumes)
	if n == 0 || window < 1 {
		return 1.0, 0
	}
	if window > n {
		window = n
	}
	sum := 0.0
	for _, v := range volumes[n-window:] {
		sum += v
	}
	avg = sum / float64(window)
	if avg == 0 {
		return 1.0, 0
	}
	return volumes[n-1] / avg, avg
}
