// Package emission implements the carbon footprint emission model: a fixed
// table of per-unit emission factors applied to self-reported activity,
// normalized to a monthly equivalent and divided across a household.
package emission

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category is one of the five emission categories.
type Category string

// Emission categories.
const (
	CategoryEnergy    Category = "energy"
	CategoryTransport Category = "transport"
	CategoryWaste     Category = "waste"
	CategoryWater     Category = "water"
	CategoryFood      Category = "food"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryEnergy,
	CategoryTransport,
	CategoryWaste,
	CategoryWater,
	CategoryFood,
}

// Key identifies a single activity quantity as "group.name".
type Key string

// Activity keys. The group prefix matches the input group, not the result category:
// transportation.* keys feed the transport category.
const (
	KeyElectricity Key = "energy.electricity"
	KeyNaturalGas  Key = "energy.naturalGas"
	KeyGasoline    Key = "energy.gasoline"
	KeyDiesel      Key = "energy.diesel"
	KeyCar         Key = "transportation.car"
	KeyFlight      Key = "transportation.flight"
	KeyBus         Key = "transportation.bus"
	KeyTrain       Key = "transportation.train"
	KeyLandfill    Key = "waste.landfill"
	KeyRecycling   Key = "waste.recycling"
	KeyWater       Key = "water.consumption"
	KeyMeat        Key = "food.meat"
	KeyDairy       Key = "food.dairy"
)

// Keys lists every known activity key.
var Keys = []Key{
	KeyElectricity, KeyNaturalGas, KeyGasoline, KeyDiesel,
	KeyCar, KeyFlight, KeyBus, KeyTrain,
	KeyLandfill, KeyRecycling,
	KeyWater,
	KeyMeat, KeyDairy,
}

var keyCategory = map[Key]Category{
	KeyElectricity: CategoryEnergy,
	KeyNaturalGas:  CategoryEnergy,
	KeyGasoline:    CategoryEnergy,
	KeyDiesel:      CategoryEnergy,
	KeyCar:         CategoryTransport,
	KeyFlight:      CategoryTransport,
	KeyBus:         CategoryTransport,
	KeyTrain:       CategoryTransport,
	KeyLandfill:    CategoryWaste,
	KeyRecycling:   CategoryWaste,
	KeyWater:       CategoryWater,
	KeyMeat:        CategoryFood,
	KeyDairy:       CategoryFood,
}

// Category returns the result category the key contributes to.
func (k Key) Category() Category {
	return keyCategory[k]
}

// ParseKey validates a category.key string.
func ParseKey(s string) (Key, error) {
	k := Key(strings.TrimSpace(s))
	if _, ok := keyCategory[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}

// ParseQuantity converts user input to a quantity. Anything that is not a
// finite, non-negative number becomes 0.
func ParseQuantity(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return clean(v)
}

// Energy holds household energy use.
type Energy struct {
	Electricity float64 `json:"electricity" yaml:"electricity"` // kWh
	NaturalGas  float64 `json:"naturalGas" yaml:"naturalGas"`   // m³
	Gasoline    float64 `json:"gasoline" yaml:"gasoline"`       // L
	Diesel      float64 `json:"diesel" yaml:"diesel"`           // L
}

// Transportation holds distances travelled in km.
type Transportation struct {
	CarDistance    float64 `json:"carDistance" yaml:"carDistance"`
	FlightDistance float64 `json:"flightDistance" yaml:"flightDistance"`
	BusDistance    float64 `json:"busDistance" yaml:"busDistance"`
	TrainDistance  float64 `json:"trainDistance" yaml:"trainDistance"`
}

// Waste holds waste produced in kg.
type Waste struct {
	Landfill  float64 `json:"landfill" yaml:"landfill"`
	Recycling float64 `json:"recycling" yaml:"recycling"`
}

// Water holds water consumption in m³.
type Water struct {
	Consumption float64 `json:"consumption" yaml:"consumption"`
}

// Food holds food consumed in kg.
type Food struct {
	Meat  float64 `json:"meat" yaml:"meat"`
	Dairy float64 `json:"dairy" yaml:"dairy"`
}

// Activity is the self-reported activity for one period.
type Activity struct {
	Energy         Energy         `json:"energy" yaml:"energy"`
	Transportation Transportation `json:"transportation" yaml:"transportation"`
	Waste          Waste          `json:"waste" yaml:"waste"`
	Water          Water          `json:"water" yaml:"water"`
	Food           Food           `json:"food" yaml:"food"`
}

// field returns a pointer to the quantity stored under k, or nil for unknown keys.
func (a *Activity) field(k Key) *float64 {
	switch k {
	case KeyElectricity:
		return &a.Energy.Electricity
	case KeyNaturalGas:
		return &a.Energy.NaturalGas
	case KeyGasoline:
		return &a.Energy.Gasoline
	case KeyDiesel:
		return &a.Energy.Diesel
	case KeyCar:
		return &a.Transportation.CarDistance
	case KeyFlight:
		return &a.Transportation.FlightDistance
	case KeyBus:
		return &a.Transportation.BusDistance
	case KeyTrain:
		return &a.Transportation.TrainDistance
	case KeyLandfill:
		return &a.Waste.Landfill
	case KeyRecycling:
		return &a.Waste.Recycling
	case KeyWater:
		return &a.Water.Consumption
	case KeyMeat:
		return &a.Food.Meat
	case KeyDairy:
		return &a.Food.Dairy
	default:
		return nil
	}
}

// Quantity returns the quantity stored under k (0 for unknown keys).
func (a Activity) Quantity(k Key) float64 {
	if p := a.field(k); p != nil {
		return *p
	}
	return 0
}

// SetQuantity stores v under k. Invalid values are stored as 0.
func (a *Activity) SetQuantity(k Key, v float64) error {
	p := a.field(k)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKey, k)
	}
	*p = clean(v)
	return nil
}

// Sanitize returns a copy with every negative or non-finite quantity replaced by 0.
func (a Activity) Sanitize() Activity {
	out := a
	for _, k := range Keys {
		p := out.field(k)
		*p = clean(*p)
	}
	return out
}

// IsZero reports whether no quantity is positive.
func (a Activity) IsZero() bool {
	for _, k := range Keys {
		if clean(a.Quantity(k)) > 0 {
			return false
		}
	}
	return true
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Period is an inclusive date range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Days returns the number of calendar days covered, counting both ends.
// A period whose end is before its start covers 0 days.
func (p Period) Days() int {
	n := dayNumber(p.To) - dayNumber(p.From)
	if n < 0 {
		return 0
	}
	return int(n + 1)
}

// Factor normalizes the period to a 30-day month.
func (p Period) Factor() float64 {
	return float64(p.Days()) / 30
}

// dayNumber counts calendar days since the Unix epoch. Midnight UTC is an
// exact multiple of a day in seconds, so the division never truncates.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

// SubjectType distinguishes individual and household footprints.
type SubjectType string

// Subject types.
const (
	SubjectIndividual SubjectType = "individual"
	SubjectFamily     SubjectType = "family"
)

// ParseSubjectType maps anything other than "family" to individual.
func ParseSubjectType(s string) SubjectType {
	if SubjectType(strings.ToLower(strings.TrimSpace(s))) == SubjectFamily {
		return SubjectFamily
	}
	return SubjectIndividual
}

// Subject is whose footprint is being measured.
type Subject struct {
	Type          SubjectType `json:"userType"`
	HouseholdSize int         `json:"householdSize"`
}

// Divisor returns the number of people the total is shared by.
func (s Subject) Divisor() int {
	if s.Type != SubjectFamily || s.HouseholdSize < 1 {
		return 1
	}
	return s.HouseholdSize
}

// Normalize clamps the household size to at least 1.
func (s Subject) Normalize() Subject {
	out := s
	if out.Type != SubjectFamily {
		out.Type = SubjectIndividual
	}
	if out.HouseholdSize < 1 {
		out.HouseholdSize = 1
	}
	return out
}

// Result is the emission breakdown in kg CO2e for a period.
type Result struct {
	Energy    float64 `json:"energy"`
	Transport float64 `json:"transport"`
	Waste     float64 `json:"waste"`
	Water     float64 `json:"water"`
	Food      float64 `json:"food"`
	Total     float64 `json:"total"`
	PerPerson float64 `json:"perPerson"`
	Days      int     `json:"days"`
}

// ByCategory returns the subtotal for c.
func (r Result) ByCategory(c Category) float64 {
	switch c {
	case CategoryEnergy:
		return r.Energy
	case CategoryTransport:
		return r.Transport
	case CategoryWaste:
		return r.Waste
	case CategoryWater:
		return r.Water
	case CategoryFood:
		return r.Food
	default:
		return 0
	}
}

func (r *Result) add(c Category, v float64) {
	switch c {
	case CategoryEnergy:
		r.Energy += v
	case CategoryTransport:
		r.Transport += v
	case CategoryWaste:
		r.Waste += v
	case CategoryWater:
		r.Water += v
	case CategoryFood:
		r.Food += v
	}
}
