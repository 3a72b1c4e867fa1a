// Package worker generates reduction tips for saved calculations in the background.
package worker

import "time"

// TipsConfig holds configuration for the tips job.
type TipsConfig struct {
	// Concurrency is the number of calculations processed at once during a backfill.
	// Default: 3
	Concurrency int

	// Timeout bounds the work for a single calculation.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultTipsConfig returns the default tips job configuration.
func DefaultTipsConfig() TipsConfig {
	return TipsConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c TipsConfig) withDefaults() TipsConfig {
	def := DefaultTipsConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
