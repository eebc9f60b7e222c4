package workload

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithAcuteWindow sets how many recent sessions form the acute load.
func WithAcuteWindow(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.acuteWindow = n
		}
	}
}

// WithThresholds sets the ratios above which a sample is elevated or very high.
func WithThresholds(elevated, veryHigh float64) Option {
	return func(c *Calculator) {
		if elevated > 0 && veryHigh >= elevated {
			c.elevated = elevated
			c.veryHigh = veryHigh
		}
	}
}

// WithParallelism caps concurrent per-athlete computations.
func WithParallelism(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.parallelism = n
		}
	}
}
