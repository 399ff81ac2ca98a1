package indicators

import "math"

// EMA is the recursive exponential average seeded with the first value,
// alpha = 2/(span+1). Every index is defined.
func EMA(data []float64, span int) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 || span < 1 {
		return out
	}
	k := 2.0 / (float64(span) + 1.0)
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}

// SMA returns NaN until a full window is available.
func SMA(data []float64, window int) []float64 {
	out := nanSlice(len(data))
	if window < 1 {
		return out
	}
	sum := 0.0
	for i, v := range data {
		sum += v
		if i >= window {
			sum -= data[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd is the sample standard deviation (n-1) over each window.
func RollingStd(data []float64, window int) []float64 {
	out := nanSlice(len(data))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(data); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += data[j]
		}
		mean /= float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := data[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

func RollingMax(data []float64, window int) []float64 {
	return rolling(data, window, math.Max)
}

func RollingMin(data []float64, window int) []float64 {
	return rolling(data, window, math.Min)
}

func rolling(data []float64, window int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(data))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(data); i++ {
		v := data[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			v = pick(v, data[j])
		}
		out[i] = v
	}
	return out
}

// PercentileRank gives the rank of each value within its trailing window
// as a fraction in (0, 1]. Ties share their average rank, so a flat window
// of 20 ranks every value at 0.525. Windows containing NaN yield NaN.
func PercentileRank(data []float64, window int) []float64 {
	out := nanSlice(len(data))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(data); i++ {
		out[i] = rankPct(data[i-window+1:i+1], data[i])
	}
	return out
}

func rankPct(win []float64, x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	less, equal := 0, 0
	for _, v := range win {
		switch {
		case math.IsNaN(v):
			return math.NaN()
		case v < x:
			less++
		case v == x:
			equal++
		}
	}
	rank := float64(less) + float64(equal+1)/2
	return rank / float64(len(win))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
