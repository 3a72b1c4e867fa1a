package emission

import (
	"encoding/json"
)

// Activity groups decode leniently: a quantity may be a JSON number or a
// numeric string, and anything else (null, booleans, junk text, a group that
// is not an object) reads as 0. Input never fails to decode because of a
// bad quantity.

// UnmarshalJSON implements json.Unmarshaler for Energy.
func (e *Energy) UnmarshalJSON(data []byte) error {
	*e = Energy{}
	decodeGroup(data, map[string]*float64{
		"electricity": &e.Electricity,
		"naturalGas":  &e.NaturalGas,
		"gasoline":    &e.Gasoline,
		"diesel":      &e.Diesel,
	})
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Transportation.
func (t *Transportation) UnmarshalJSON(data []byte) error {
	*t = Transportation{}
	decodeGroup(data, map[string]*float64{
		"carDistance":    &t.CarDistance,
		"flightDistance": &t.FlightDistance,
		"busDistance":    &t.BusDistance,
		"trainDistance":  &t.TrainDistance,
	})
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Waste.
func (w *Waste) UnmarshalJSON(data []byte) error {
	*w = Waste{}
	decodeGroup(data, map[string]*float64{
		"landfill":  &w.Landfill,
		"recycling": &w.Recycling,
	})
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Water.
func (w *Water) UnmarshalJSON(data []byte) error {
	*w = Water{}
	decodeGroup(data, map[string]*float64{
		"consumption": &w.Consumption,
	})
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Food.
func (f *Food) UnmarshalJSON(data []byte) error {
	*f = Food{}
	decodeGroup(data, map[string]*float64{
		"meat":  &f.Meat,
		"dairy": &f.Dairy,
	})
	return nil
}

// decodeGroup fills fields from a JSON object. Unknown members are ignored.
func decodeGroup(data []byte, fields map[string]*float64) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return
	}
	for name, raw := range members {
		if p, ok := fields[name]; ok {
			*p = quantityFromJSON(raw)
		}
	}
}

// quantityFromJSON reads a number or a numeric string. Anything else is 0.
func quantityFromJSON(raw json.RawMessage) float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return clean(v)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseQuantity(s)
	}
	return 0
}
