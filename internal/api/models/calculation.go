package models

import (
	"github.com/ecotrace/ecotrace/internal/emission"
)

// PeriodInput is the requested date range. Both ends are inclusive.
type PeriodInput struct {
	From *Date `json:"from"`
	To   *Date `json:"to"`
}

// CalculationRequest is the request body for saving or estimating a calculation.
// Any results sent by the client are ignored and recomputed.
type CalculationRequest struct {
	Period        PeriodInput       `json:"period"`
	DateRange     *PeriodInput      `json:"dateRange,omitempty"`
	UserType      string            `json:"userType"`
	HouseholdSize int               `json:"householdSize"`
	Inputs        emission.Activity `json:"inputs"`
}

// EffectivePeriod returns Period, falling back to the legacy dateRange field.
func (r *CalculationRequest) EffectivePeriod() PeriodInput {
	if r.Period.From == nil && r.Period.To == nil && r.DateRange != nil {
		return *r.DateRange
	}
	return r.Period
}

// Period is a stored date range with its day count.
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
	Days int  `json:"days"`
}

// Calculation is a saved calculation.
type Calculation struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Period        Period            `json:"period"`
	UserType      string            `json:"userType"`
	HouseholdSize int               `json:"householdSize"`
	Inputs        emission.Activity `json:"inputs"`
	Results       emission.Result   `json:"results"`
	CreatedAt     Timestamp         `json:"createdAt"`
}

// CalculationList is the response of the list endpoint, newest first.
type CalculationList struct {
	Items []Calculation `json:"items"`
	Count int           `json:"count"`
}

// Estimate is the response of the stateless estimate endpoint.
type Estimate struct {
	Results     emission.Result `json:"results"`
	Suggestions []string        `json:"suggestions"`
}

// Tips is the response of the tips endpoint.
type Tips struct {
	CalculationID string     `json:"calculationId"`
	Tips          []string   `json:"tips"`
	Source        string     `json:"source"`
	GeneratedAt   *Timestamp `json:"generatedAt,omitempty"`
}

// FactorEntry is one row of the emission factor table.
type FactorEntry struct {
	Key      string  `json:"key"`
	Category string  `json:"category"`
	Factor   float64 `json:"factor"`
}

// Factors is the response of the factors endpoint.
type Factors struct {
	Items []FactorEntry `json:"items"`
}
