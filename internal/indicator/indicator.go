// Package indicator provides the rolling-window computations used by the
// built-in strategies. The EMA seeds with the SMA of the window immediately
// preceding the EMA window and is undefined until 2×window observations
// exist; strategies that compare EMAs depend on this exact recurrence.
package indicator

// SMA returns the simple moving average of the last window values. ok is
// false when fewer than window values are available.
func SMA(data []float64, window int) (float64, bool) {
	if window <= 0 || len(data) < window {
		return 0, false
	}
	var sum float64
	for _, v := range data[len(data)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// EMA returns the exponential moving average of the last window values,
// seeded with the SMA of the window preceding them and smoothed with
// c = 2/(window+1). ok is false until at least 2×window values exist.
func EMA(data []float64, window int) (float64, bool) {
	if window <= 0 || len(data) < window*2 {
		return 0, false
	}
	c := 2.0 / float64(window+1)
	ema, _ := SMA(data[len(data)-window*2:len(data)-window], window)
	for _, v := range data[len(data)-window:] {
		ema = c*v + (1-c)*ema
	}
	return ema, true
}

// Max returns the largest value in data. ok is false for empty input.
func Max(data []float64) (float64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Min returns the smallest value in data. ok is false for empty input.
func Min(data []float64) (float64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	m := data[0]
	for _, v := range data[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}
