package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ecotrace/ecotrace/internal/emission"
)

// Instruments are the domain metrics shared by the API and the worker.
type Instruments struct {
	calculationsSaved   metric.Int64Counter
	calculationsDeleted metric.Int64Counter
	emissionTotal       metric.Float64Histogram
	assistantDuration   metric.Float64Histogram
	assistantErrors     metric.Int64Counter
	tipsGenerated       metric.Int64Counter
}

// NewInstruments registers the domain instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	calculationsSaved, err := meter.Int64Counter(
		"ecotrace.calculations.saved",
		metric.WithDescription("Number of calculations saved"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return nil, err
	}

	calculationsDeleted, err := meter.Int64Counter(
		"ecotrace.calculations.deleted",
		metric.WithDescription("Number of calculations deleted"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return nil, err
	}

	emissionTotal, err := meter.Float64Histogram(
		"ecotrace.emission.total",
		metric.WithDescription("Total emissions of saved calculations"),
		metric.WithUnit("kg"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	assistantDuration, err := meter.Float64Histogram(
		"ecotrace.assistant.duration",
		metric.WithDescription("Duration of assistant calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	assistantErrors, err := meter.Int64Counter(
		"ecotrace.assistant.errors",
		metric.WithDescription("Number of failed assistant calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	tipsGenerated, err := meter.Int64Counter(
		"ecotrace.tips.generated",
		metric.WithDescription("Number of tip lists stored"),
		metric.WithUnit("{list}"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		calculationsSaved:   calculationsSaved,
		calculationsDeleted: calculationsDeleted,
		emissionTotal:       emissionTotal,
		assistantDuration:   assistantDuration,
		assistantErrors:     assistantErrors,
		tipsGenerated:       tipsGenerated,
	}, nil
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	i, _ := NewInstruments(noop.NewMeterProvider().Meter("noop")) //nolint:errcheck // noop meter never fails
	return i
}

// CalculationSaved records a saved calculation and its total.
func (i *Instruments) CalculationSaved(ctx context.Context, subject emission.SubjectType, total float64) {
	attrs := metric.WithAttributes(attribute.String("subject", string(subject)))
	i.calculationsSaved.Add(ctx, 1, attrs)
	i.emissionTotal.Record(ctx, total, attrs)
}

// CalculationDeleted records a deleted calculation.
func (i *Instruments) CalculationDeleted(ctx context.Context) {
	i.calculationsDeleted.Add(ctx, 1)
}

// AssistantCall records the duration and outcome of an assistant call.
func (i *Instruments) AssistantCall(ctx context.Context, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	)
	i.assistantDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		i.assistantErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// TipsGenerated records a stored tip list by source.
func (i *Instruments) TipsGenerated(ctx context.Context, source string) {
	i.tipsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
