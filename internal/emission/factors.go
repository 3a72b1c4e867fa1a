package emission

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Predefined errors.
var (
	ErrUnknownKey     = errors.New("unknown activity key")
	ErrInvalidFactor  = errors.New("invalid emission factor")
	ErrEmptyFactorSet = errors.New("factor set is empty")
)

// Factors maps an activity key to kg CO2e per input unit.
// Keys absent from the table contribute nothing.
type Factors map[Key]float64

// DefaultFactors returns the built-in factor table. Recycling is deliberately
// absent and therefore weighs 0.
func DefaultFactors() Factors {
	return Factors{
		KeyElectricity: 0.85,
		KeyNaturalGas:  2.0,
		KeyGasoline:    2.3,
		KeyDiesel:      2.7,
		KeyCar:         0.12,
		KeyFlight:      0.25,
		KeyBus:         0.08,
		KeyTrain:       0.05,
		KeyLandfill:    0.5,
		KeyWater:       0.3,
		KeyMeat:        15,
		KeyDairy:       5,
	}
}

// Factor returns the factor for k, 0 if unset.
func (f Factors) Factor(k Key) float64 {
	return f[k]
}

// Entry is a single row of a factor table.
type Entry struct {
	Key      Key      `json:"key"`
	Category Category `json:"category"`
	Factor   float64  `json:"factor"`
}

// Entries returns the table sorted by key for display.
func (f Factors) Entries() []Entry {
	entries := make([]Entry, 0, len(f))
	for k, v := range f {
		entries = append(entries, Entry{Key: k, Category: k.Category(), Factor: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Compute applies the default factor table.
func Compute(activity Activity, period Period, subject Subject) Result {
	return DefaultFactors().Compute(activity, period, subject)
}

// Compute returns the emissions for activity over period, shared by subject.
// Category subtotals and the total are scaled to the period; nothing is rounded.
func (f Factors) Compute(activity Activity, period Period, subject Subject) Result {
	days := period.Days()
	if days == 0 {
		return Result{}
	}

	var sums Result
	for _, k := range Keys {
		sums.add(k.Category(), clean(activity.Quantity(k))*f.Factor(k))
	}

	periodFactor := float64(days) / 30
	res := Result{
		Energy:    sums.Energy * periodFactor,
		Transport: sums.Transport * periodFactor,
		Waste:     sums.Waste * periodFactor,
		Water:     sums.Water * periodFactor,
		Food:      sums.Food * periodFactor,
		Days:      days,
	}
	res.Total = (sums.Energy + sums.Transport + sums.Waste + sums.Water + sums.Food) * periodFactor
	res.PerPerson = res.Total / float64(subject.Divisor())
	return res
}

// factorFile is the YAML layout of an alternate factor set.
type factorFile struct {
	Name    string             `yaml:"name"`
	Factors map[string]float64 `yaml:"factors"`
}

// LoadFactors parses a YAML factor set:
//
//	name: eu-2024
//	factors:
//	  energy.electricity: 0.3
//	  food.meat: 27
func LoadFactors(r io.Reader) (Factors, error) {
	var file factorFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode factor set: %w", err)
	}
	if len(file.Factors) == 0 {
		return nil, ErrEmptyFactorSet
	}

	out := make(Factors, len(file.Factors))
	for raw, v := range file.Factors {
		k, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidFactor, raw, v)
		}
		out[k] = v
	}
	return out, nil
}

// LoadFactorsFile reads a factor set from path.
func LoadFactorsFile(path string) (Factors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open factor set: %w", err)
	}
	defer f.Close()

	return LoadFactors(f)
}
