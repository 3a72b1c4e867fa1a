package models

import (
	"github.com/ecotrace/ecotrace/internal/dashboard"
)

// Dashboard is the response of the dashboard endpoint.
type Dashboard struct {
	Summary     dashboard.Summary `json:"summary"`
	Series      []dashboard.Point `json:"series"`
	Suggestions []string          `json:"suggestions"`
}
