package emission

// Suggestion thresholds in kg CO2e per period.
const (
	energySuggestionThreshold    = 1000
	transportSuggestionThreshold = 500
	foodSuggestionThreshold      = 300
	wasteSuggestionThreshold     = 200
)

// LowFootprintMessage is returned when no category exceeds its threshold.
const LowFootprintMessage = "Great job! Your carbon footprint is low."

// Suggestions returns reduction hints for the categories above their threshold.
func Suggestions(r Result) []string {
	var out []string
	if r.Energy > energySuggestionThreshold {
		out = append(out, "Use renewable energy sources or install solar panels.")
	}
	if r.Transport > transportSuggestionThreshold {
		out = append(out, "Prefer public transport, carpool, or cycle.")
	}
	if r.Food > foodSuggestionThreshold {
		out = append(out, "Reduce meat and dairy consumption.")
	}
	if r.Waste > wasteSuggestionThreshold {
		out = append(out, "Recycle and compost more.")
	}
	if len(out) == 0 {
		out = append(out, LowFootprintMessage)
	}
	return out
}
