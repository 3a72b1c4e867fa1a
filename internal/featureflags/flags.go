// Package featureflags provides runtime switches backed by a repository with
// an in-process cache and compiled-in defaults.
package featureflags

import (
	"errors"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisableAssistant turns the chat assistant endpoints off.
	FlagDisableAssistant = "disable_assistant"

	// FlagDisableTipsGeneration stops the worker from calling the assistant for tips.
	FlagDisableTipsGeneration = "disable_tips_generation"

	// FlagEnableSignup allows new accounts to be created.
	FlagEnableSignup = "enable_signup"

	// FlagDashboardSeriesLength is the number of entries in the dashboard chart.
	FlagDashboardSeriesLength = "dashboard_series_length"
)

// ErrUnknownFlag is returned when updating a key that has no default.
var ErrUnknownFlag = errors.New("unknown feature flag")

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag value as a boolean, or defaultValue when the
// flag is nil or not boolean-like.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON numbers decode as float64
		return v != 0
	default:
		return defaultValue
	}
}

// IntValue returns the flag value as an integer, or defaultValue when the
// flag is nil or not numeric.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// DefaultFlags returns the compiled-in flag values.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagDisableAssistant: {
			Key:       FlagDisableAssistant,
			Value:     false,
			UpdatedAt: now,
		},
		FlagDisableTipsGeneration: {
			Key:       FlagDisableTipsGeneration,
			Value:     false,
			UpdatedAt: now,
		},
		FlagEnableSignup: {
			Key:       FlagEnableSignup,
			Value:     true,
			UpdatedAt: now,
		},
		FlagDashboardSeriesLength: {
			Key:       FlagDashboardSeriesLength,
			Value:     6,
			UpdatedAt: now,
		},
	}
}
