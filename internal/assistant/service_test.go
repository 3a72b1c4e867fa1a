package assistant_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/assistant"
	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type staticSwitch bool

func (s staticSwitch) AssistantDisabled(context.Context) bool { return bool(s) }

func fastConfig(registry *resilience.Registry) resilience.Config {
	return resilience.Config{
		Name:            assistant.ProviderName,
		Timeout:         time.Second,
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Registry:        registry,
		Logger:          zerolog.Nop(),
	}
}

func newService(gen assistant.Generator, sw assistant.Switch) *assistant.Service {
	return assistant.NewService(assistant.ServiceConfig{
		Generator:  gen,
		Switch:     sw,
		Resilience: fastConfig(nil),
		Logger:     zerolog.Nop(),
	})
}

func TestChat_JoinsContextAndPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "Use public transport."}
	svc := newService(gen, nil)

	reply, err := svc.Chat(context.Background(), "How can I cut emissions?", "My total is 400 kg.")
	require.NoError(t, err)
	assert.Equal(t, "Use public transport.", reply.Text)
	assert.Nil(t, reply.Tips)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "My total is 400 kg.\n\nHow can I cut emissions?", gen.prompts[0])
}

func TestChat_NoContext(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc := newService(gen, nil)

	_, err := svc.Chat(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", gen.prompts[0])
}

func TestChat_TipsMode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"json array", `["Bike to work", "Eat less meat"]`, []string{"Bike to work", "Eat less meat"}},
		{"fenced json", "```json\n[\"Insulate\"]\n```", []string{"Insulate"}},
		{"plain text", "Turn off the lights.", []string{"Turn off the lights."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&fakeGenerator{reply: tt.reply}, nil)

			reply, err := svc.Chat(context.Background(), "Give me Eco-Friendly Tips please", "")
			require.NoError(t, err)
			assert.Empty(t, reply.Text)
			assert.Equal(t, tt.want, reply.Tips)
		})
	}
}

func TestChat_EmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	svc := newService(gen, nil)

	_, err := svc.Chat(context.Background(), "   ", "context")
	assert.ErrorIs(t, err, assistant.ErrEmptyPrompt)
	assert.Zero(t, gen.calls())
}

func TestChat_Unavailable(t *testing.T) {
	_, err := newService(nil, nil).Chat(context.Background(), "hi", "")
	assert.ErrorIs(t, err, assistant.ErrAssistantUnavailable)

	gen := &fakeGenerator{reply: "x"}
	_, err = newService(gen, staticSwitch(true)).Chat(context.Background(), "hi", "")
	assert.ErrorIs(t, err, assistant.ErrAssistantUnavailable)
	assert.Zero(t, gen.calls())
}

func TestChat_RetriesThenFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream 500")}
	registry := resilience.NewRegistry()
	svc := assistant.NewService(assistant.ServiceConfig{
		Generator:  gen,
		Resilience: fastConfig(registry),
		Logger:     zerolog.Nop(),
	})

	_, err := svc.Chat(context.Background(), "hi", "")
	require.Error(t, err)
	assert.Equal(t, 2, gen.calls())

	health := registry.GetHealth(assistant.ProviderName)
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
}

func TestTips(t *testing.T) {
	gen := &fakeGenerator{reply: `["Switch to LED bulbs"]`}
	svc := newService(gen, nil)

	tips, err := svc.Tips(context.Background(), emission.Result{Energy: 1200, Total: 1200, PerPerson: 1200, Days: 30})
	require.NoError(t, err)
	assert.Equal(t, []string{"Switch to LED bulbs"}, tips)
	assert.Contains(t, gen.prompts[0], "energy: 1200.00")
}

func TestTipsPrompt(t *testing.T) {
	p := assistant.TipsPrompt(emission.Result{Transport: 6, Total: 6, PerPerson: 3, Days: 30})

	assert.Contains(t, p, "over 30 days is 6.00 kg")
	assert.Contains(t, p, "transport: 6.00")
	assert.True(t, strings.HasSuffix(p, "JSON array of strings."))
}

func TestParseTips_EmptyArrayFallsBack(t *testing.T) {
	assert.Equal(t, []string{"[]"}, assistant.ParseTips("[]"))
	assert.Equal(t, []string{`["", " "]`}, assistant.ParseTips(`["", " "]`))
}
