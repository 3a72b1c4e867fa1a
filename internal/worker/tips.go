package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/assistant"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/events"
	"github.com/ecotrace/ecotrace/internal/telemetry"
	"github.com/ecotrace/ecotrace/internal/tips"
)

// JobTipsBackfill asks the worker to generate missing tips for every
// calculation of a user.
const JobTipsBackfill = "tips.backfill"

// ErrUnknownEventType is returned for messages the worker does not handle.
var ErrUnknownEventType = errors.New("unknown event type")

// Calculations is the read side of the calculation store.
type Calculations interface {
	Get(ctx context.Context, userID, id string) (*calculation.Calculation, error)
	List(ctx context.Context, userID string) ([]*calculation.Calculation, error)
}

// TipsGenerator produces tips for a result.
type TipsGenerator interface {
	Tips(ctx context.Context, r emission.Result) ([]string, error)
}

// Switch reports whether tips generation is turned off at runtime.
type Switch interface {
	TipsGenerationDisabled(ctx context.Context) bool
}

// TipsJobConfig holds configuration for creating a TipsJob.
type TipsJobConfig struct {
	Config       TipsConfig
	Calculations Calculations
	Generator    TipsGenerator
	Repository   tips.Repository
	Switch       Switch
	Instruments  *telemetry.Instruments
	Logger       zerolog.Logger
}

// TipsJob generates and stores tips in reaction to calculation events.
type TipsJob struct {
	config       TipsConfig
	calculations Calculations
	generator    TipsGenerator
	repo         tips.Repository
	sw           Switch
	instruments  *telemetry.Instruments
	logger       zerolog.Logger

	metrics TipsMetrics
}

// TipsMetrics tracks job statistics.
type TipsMetrics struct {
	Generated int64
	Fallbacks int64
	Skipped   int64
	Deleted   int64
	Failed    int64
}

// NewTipsJob creates a new tips job.
func NewTipsJob(cfg TipsJobConfig) *TipsJob {
	instruments := cfg.Instruments
	if instruments == nil {
		instruments = telemetry.NoopInstruments()
	}
	return &TipsJob{
		config:       cfg.Config.withDefaults(),
		calculations: cfg.Calculations,
		generator:    cfg.Generator,
		repo:         cfg.Repository,
		sw:           cfg.Switch,
		instruments:  instruments,
		logger:       cfg.Logger,
	}
}

// Handle processes one event. Errors worth a redelivery are returned;
// ErrUnknownEventType means the message should be dropped.
func (j *TipsJob) Handle(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.TypeCalculationSaved:
		return j.generate(ctx, e.UserID, e.CalculationID)
	case events.TypeCalculationDeleted:
		if err := j.repo.Delete(ctx, e.CalculationID); err != nil {
			return fmt.Errorf("deleting tips: %w", err)
		}
		atomic.AddInt64(&j.metrics.Deleted, 1)
		return nil
	case JobTipsBackfill:
		res, err := j.Backfill(ctx, e.UserID)
		if err != nil {
			return err
		}
		if res.Failed > res.Successful {
			return fmt.Errorf("too many backfill failures: %d/%d", res.Failed, res.Total)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
}

func (j *TipsJob) generate(ctx context.Context, userID, calculationID string) error {
	if j.sw != nil && j.sw.TipsGenerationDisabled(ctx) {
		atomic.AddInt64(&j.metrics.Skipped, 1)
		j.logger.Debug().Str("calculation_id", calculationID).Msg("tips generation disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	calc, err := j.calculations.Get(ctx, userID, calculationID)
	if err != nil {
		if errors.Is(err, calculation.ErrCalculationNotFound) {
			// Deleted before we got to it.
			atomic.AddInt64(&j.metrics.Skipped, 1)
			return nil
		}
		return fmt.Errorf("loading calculation: %w", err)
	}

	source := tips.SourceAssistant
	list, err := j.generator.Tips(ctx, calc.Results)
	if err != nil {
		if !errors.Is(err, assistant.ErrAssistantUnavailable) {
			atomic.AddInt64(&j.metrics.Failed, 1)
			return fmt.Errorf("generating tips: %w", err)
		}
		source = tips.SourceLocal
		list = emission.Suggestions(calc.Results)
	}

	err = j.repo.Save(ctx, &tips.Tips{
		CalculationID: calc.ID,
		UserID:        calc.UserID,
		Tips:          list,
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		atomic.AddInt64(&j.metrics.Failed, 1)
		return fmt.Errorf("storing tips: %w", err)
	}

	if source == tips.SourceLocal {
		atomic.AddInt64(&j.metrics.Fallbacks, 1)
	} else {
		atomic.AddInt64(&j.metrics.Generated, 1)
	}
	j.instruments.TipsGenerated(ctx, source)

	j.logger.Info().
		Str("calculation_id", calc.ID).
		Str("source", source).
		Int("tips", len(list)).
		Msg("tips stored")
	return nil
}

// BackfillResult summarizes a backfill run.
type BackfillResult struct {
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
}

// Backfill generates tips for every calculation of userID that has none yet.
func (j *TipsJob) Backfill(ctx context.Context, userID string) (*BackfillResult, error) {
	start := time.Now()

	calcs, err := j.calculations.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing calculations: %w", err)
	}

	var pending []*calculation.Calculation
	for _, c := range calcs {
		_, err := j.repo.Get(ctx, userID, c.ID)
		if errors.Is(err, tips.ErrTipsNotFound) {
			pending = append(pending, c)
		} else if err != nil {
			return nil, fmt.Errorf("checking tips: %w", err)
		}
	}

	result := &BackfillResult{Total: len(pending)}

	work := make(chan *calculation.Calculation, len(pending))
	for _, c := range pending {
		work <- c
	}
	close(work)

	var (
		wg                 sync.WaitGroup
		successful, failed atomic.Int64
	)
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				if ctx.Err() != nil {
					failed.Add(1)
					continue
				}
				if err := j.generate(ctx, c.UserID, c.ID); err != nil {
					j.logger.Warn().Err(err).Str("calculation_id", c.ID).Msg("backfill failed")
					failed.Add(1)
					continue
				}
				successful.Add(1)
			}
		}()
	}
	wg.Wait()

	result.Successful = int(successful.Load())
	result.Failed = int(failed.Load())
	result.Duration = time.Since(start)

	j.logger.Info().
		Str("user_id", userID).
		Int("total", result.Total).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("tips backfill completed")

	return result, nil
}

// Metrics returns a snapshot of the job counters.
func (j *TipsJob) Metrics() TipsMetrics {
	return TipsMetrics{
		Generated: atomic.LoadInt64(&j.metrics.Generated),
		Fallbacks: atomic.LoadInt64(&j.metrics.Fallbacks),
		Skipped:   atomic.LoadInt64(&j.metrics.Skipped),
		Deleted:   atomic.LoadInt64(&j.metrics.Deleted),
		Failed:    atomic.LoadInt64(&j.metrics.Failed),
	}
}
