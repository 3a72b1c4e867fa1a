package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
	"github.com/ecotrace/ecotrace/internal/telemetry"
)

// ProviderName identifies the assistant in provider health reports.
const ProviderName = "assistant"

// tipsMarker switches a chat prompt into tips mode.
const tipsMarker = "eco-friendly tips"

// Errors.
var (
	ErrAssistantUnavailable = errors.New("assistant is not available")
	ErrEmptyPrompt          = errors.New("prompt is required")
	ErrEmptyReply           = errors.New("assistant returned an empty reply")
)

// Switch reports whether the assistant is turned off at runtime.
type Switch interface {
	AssistantDisabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the assistant service.
type ServiceConfig struct {
	// Generator is nil when no API key is configured.
	Generator   Generator
	Switch      Switch
	Resilience  resilience.Config
	Instruments *telemetry.Instruments
	Logger      zerolog.Logger
}

// Service wraps a Generator with timeouts, retries and a circuit breaker.
type Service struct {
	generator   Generator
	sw          Switch
	executor    *resilience.Executor[string]
	instruments *telemetry.Instruments
	logger      zerolog.Logger
}

// NewService creates a new assistant service.
func NewService(cfg ServiceConfig) *Service {
	rc := cfg.Resilience
	if rc.Name == "" {
		registry := rc.Registry
		rc = resilience.DefaultConfig(ProviderName)
		rc.Registry = registry
		rc.Logger = cfg.Logger
	}

	instruments := cfg.Instruments
	if instruments == nil {
		instruments = telemetry.NoopInstruments()
	}

	return &Service{
		generator:   cfg.Generator,
		sw:          cfg.Switch,
		executor:    resilience.NewExecutor[string](rc),
		instruments: instruments,
		logger:      cfg.Logger,
	}
}

// Available reports whether calls can be made.
func (s *Service) Available(ctx context.Context) bool {
	if s.generator == nil {
		return false
	}
	return s.sw == nil || !s.sw.AssistantDisabled(ctx)
}

// Reply is the outcome of a chat call. Exactly one field is set.
type Reply struct {
	Text string
	Tips []string
}

// Chat sends prompt, prefixed by chatContext when present. A prompt asking for
// eco-friendly tips yields a tips reply.
func (s *Service) Chat(ctx context.Context, prompt, chatContext string) (*Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	full := prompt
	if c := strings.TrimSpace(chatContext); c != "" {
		full = c + "\n\n" + prompt
	}

	text, err := s.generate(ctx, "chat", full)
	if err != nil {
		return nil, err
	}

	if strings.Contains(strings.ToLower(prompt), tipsMarker) {
		return &Reply{Tips: ParseTips(text)}, nil
	}
	return &Reply{Text: text}, nil
}

// Tips asks for reduction tips tailored to a result.
func (s *Service) Tips(ctx context.Context, r emission.Result) ([]string, error) {
	text, err := s.generate(ctx, "tips", TipsPrompt(r))
	if err != nil {
		return nil, err
	}
	return ParseTips(text), nil
}

func (s *Service) generate(ctx context.Context, operation, prompt string) (string, error) {
	if !s.Available(ctx) {
		return "", ErrAssistantUnavailable
	}

	start := time.Now()
	text, err := s.executor.Execute(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, prompt)
	})
	s.instruments.AssistantCall(ctx, operation, start, err)

	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("assistant call failed")
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return "", fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
		}
		return "", err
	}
	return text, nil
}

// TipsPrompt builds the tips request for a result.
func TipsPrompt(r emission.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My carbon footprint over %d days is %.2f kg CO2e (%.2f kg per person).\n", r.Days, r.Total, r.PerPerson)
	b.WriteString("Breakdown by category in kg CO2e:\n")
	for _, c := range emission.Categories {
		fmt.Fprintf(&b, "- %s: %.2f\n", c, r.ByCategory(c))
	}
	b.WriteString("\nGive me 5 short, practical eco-friendly tips to reduce it, ")
	b.WriteString("focusing on the largest categories. Answer only with a JSON array of strings.")
	return b.String()
}

// ParseTips reads a JSON array of strings, tolerating a Markdown code fence.
// Any other reply becomes a single tip holding the whole text.
func ParseTips(text string) []string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var tips []string
	if err := json.Unmarshal([]byte(trimmed), &tips); err != nil || len(tips) == 0 {
		return []string{text}
	}

	out := tips[:0]
	for _, t := range tips {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
