package resilience_test

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/provider/resilience"
)

type stubBreaker struct {
	state gobreaker.State
}

func (s stubBreaker) State() gobreaker.State   { return s.state }
func (s stubBreaker) Counts() gobreaker.Counts { return gobreaker.Counts{} }

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("genai", stubBreaker{state: gobreaker.StateClosed})

	assert.Equal(t, 1, registry.ProviderCount())

	health := registry.GetHealth("genai")
	require.NotNil(t, health)
	assert.Equal(t, "genai", health.Name)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("genai", stubBreaker{})
	registry.Unregister("genai")

	assert.Equal(t, 0, registry.ProviderCount())
	assert.Nil(t, registry.GetHealth("genai"))
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("genai", stubBreaker{})

	registry.RecordSuccess("genai")
	registry.RecordFailure("genai", assert.AnError)

	health := registry.GetHealth("genai")
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)

	// Unknown names are ignored.
	registry.RecordSuccess("nonexistent")
	registry.RecordFailure("nonexistent", assert.AnError)
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"provider-c", "provider-a", "provider-b"} {
		registry.Register(name, stubBreaker{state: gobreaker.StateOpen})
	}

	list := registry.GetAllHealth()
	require.Len(t, list, 3)
	assert.Equal(t, "provider-a", list[0].Name)
	assert.Equal(t, "provider-c", list[2].Name)
	for _, h := range list {
		assert.True(t, h.IsUnhealthy())
	}
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state      gobreaker.State
		isHealthy  bool
		isDegraded bool
		isUnhealth bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealth, h.IsUnhealthy())
		})
	}
}
