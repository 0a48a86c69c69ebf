// Package pipeline wraps the orchestrator with timeout enforcement and
// concurrency-bounded batch execution over many candidates.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/expansion-cli/internal/config"
	"github.com/sells-group/expansion-cli/internal/model"
)

// Scorer is the orchestrator-shaped dependency the processor drives.
type Scorer interface {
	ScoreCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (*model.StrategicSuggestion, error)
}

// BatchResult accumulates the outcome of one batch run. SuccessRate is a
// percentage on [0, 100]; AvgProcessingTime is the mean per-candidate
// latency, not batch wall time over count. Suggestion order within a chunk
// follows completion, not submission; correlate by CellID.
type BatchResult struct {
	TotalProcessed    int                          `json:"total_processed"`
	ErrorCount        int                          `json:"error_count"`
	AvgProcessingTime time.Duration                `json:"avg_processing_time"`
	SuccessRate       float64                      `json:"success_rate"`
	Suggestions       []*model.StrategicSuggestion `json:"suggestions"`
}

// Processor bounds concurrent orchestrator calls: candidates run in chunks
// of the configured parallelism, chunks strictly sequential, with a
// per-candidate wall-clock timeout. Each orchestrator call already fans
// out to the network-bound strategies internally, so the chunk size is a
// bound on total outstanding work, not a throughput maximum.
type Processor struct {
	scorer  Scorer
	chunk   int
	timeout time.Duration
}

// Option configures a Processor.
type Option func(*Processor)

// WithTimeout overrides the per-candidate timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// New creates a processor from the strategy config's parallelism and
// timeout settings.
func New(scorer Scorer, cfg config.StrategyConfig, opts ...Option) *Processor {
	p := &Processor{
		scorer:  scorer,
		chunk:   cfg.MaxParallelism,
		timeout: time.Duration(cfg.ScoreTimeoutSecs) * time.Second,
	}
	if p.chunk <= 0 {
		p.chunk = 1
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessCandidate scores one candidate under the processor's timeout.
// The scorer receives a context cancelled at the deadline, so timed-out
// external calls are aborted rather than left running. Timeout or scorer
// failure yields (nil, false); callers treat that as "skip", not as a
// hard failure.
func (p *Processor) ProcessCandidate(ctx context.Context, cell model.ScoredCell, ec *model.ExpansionContext) (*model.StrategicSuggestion, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s, err := p.scorer.ScoreCandidate(ctx, cell, ec)
	if err != nil {
		zap.L().Warn("candidate scoring abandoned",
			zap.String("cell", cell.ID),
			zap.Duration("timeout", p.timeout),
			zap.Error(err),
		)
		return nil, false
	}
	return s, true
}

// ProcessBatch scores all candidates in sequential chunks of the configured
// parallelism, concurrent within each chunk. One candidate's failure never
// aborts its siblings.
func (p *Processor) ProcessBatch(ctx context.Context, cells []model.ScoredCell, ec *model.ExpansionContext) BatchResult {
	var (
		mu      sync.Mutex
		elapsed time.Duration
		result  BatchResult
	)

	for offset := 0; offset < len(cells); offset += p.chunk {
		end := offset + p.chunk
		if end > len(cells) {
			end = len(cells)
		}

		var g errgroup.Group
		for _, cell := range cells[offset:end] {
			g.Go(func() error {
				began := time.Now()
				s, ok := p.ProcessCandidate(ctx, cell, ec)
				took := time.Since(began)

				mu.Lock()
				defer mu.Unlock()
				result.TotalProcessed++
				elapsed += took
				if !ok {
					result.ErrorCount++
					return nil
				}
				result.Suggestions = append(result.Suggestions, s)
				return nil
			})
		}
		// Workers never return errors; failures are counted in the result.
		_ = g.Wait()

		zap.L().Debug("batch chunk complete",
			zap.Int("processed", result.TotalProcessed),
			zap.Int("total", len(cells)),
		)
	}

	if result.TotalProcessed > 0 {
		result.AvgProcessingTime = elapsed / time.Duration(result.TotalProcessed)
		result.SuccessRate = float64(result.TotalProcessed-result.ErrorCount) / float64(result.TotalProcessed) * 100
	}
	return result
}
