package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"beacon/internal/heuristic"
	"beacon/internal/instrumentation"
	"beacon/internal/llm"
	"beacon/internal/logging"
	"beacon/internal/mail"
	"beacon/internal/store"
	"beacon/internal/triage"
)

// Fetcher retrieves messages from a mail provider.
type Fetcher interface {
	// Fetch returns up to limit messages.
	Fetch(ctx context.Context, limit int) ([]*mail.Message, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Analyzer runs model analysis over a batch of messages.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, items []llm.BatchItem) (map[string]*triage.Verdict, error)
	Model() string
}

// Options tune a pipeline run.
type Options struct {
	// MaxMessages caps how many messages one run fetches.
	MaxMessages int

	// BatchSize is the number of messages per model batch.
	BatchSize int

	// ExcerptChars bounds how much body text goes into the prompt.
	ExcerptChars int

	// Concurrency bounds how many batches are analyzed at once.
	Concurrency int

	// TTL is the dedup window; messages triaged within it are skipped.
	TTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxMessages <= 0 {
		o.MaxMessages = 100
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 8
	}
	if o.ExcerptChars <= 0 {
		o.ExcerptChars = 2000
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.TTL <= 0 {
		o.TTL = 7 * 24 * time.Hour
	}
	return o
}

// Summary reports what one run did.
type Summary struct {
	RunID         string        `json:"runId"`
	Provider      string        `json:"provider"`
	Fetched       int           `json:"fetched"`
	Skipped       int           `json:"skipped"`
	Triaged       int           `json:"triaged"`
	LLMAnalyzed   int           `json:"llmAnalyzed"`
	HeuristicOnly int           `json:"heuristicOnly"`
	FailedBatches int           `json:"failedBatches"`
	Pruned        int64         `json:"pruned"`
	Duration      time.Duration `json:"duration"`
}

// Pipeline runs the triage flow end to end.
type Pipeline struct {
	fetcher   Fetcher
	analyzer  Analyzer // nil means heuristic-only runs
	heuristic *heuristic.Analyzer
	store     *store.Store
	opts      Options
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	audit     *instrumentation.AuditLogger
}

// New creates a Pipeline. analyzer may be nil to run without model
// analysis; metrics and audit may be nil and default to no-ops.
func New(fetcher Fetcher, analyzer Analyzer, st *store.Store, opts Options, logger *slog.Logger, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	if audit == nil {
		audit = instrumentation.NewAuditLogger(logger)
	}

	return &Pipeline{
		fetcher:   fetcher,
		analyzer:  analyzer,
		heuristic: heuristic.New(),
		store:     st,
		opts:      opts.withDefaults(),
		logger:    logger,
		metrics:   metrics,
		audit:     audit,
	}
}

// analyzed pairs a fresh message with its heuristic signals.
type analyzed struct {
	msg         *mail.Message
	fingerprint string
	signals     heuristic.Signals
}

// Run executes one triage run and returns its summary. The returned
// summary is valid even when the run ends early with an error.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	summary := &Summary{
		RunID:    runID,
		Provider: p.fetcher.Name(),
	}

	log := logging.WithRunID(logging.WithProvider(p.logger, p.fetcher.Name()), runID)

	ctx, span := instrumentation.StartRunSpan(ctx, runID, p.fetcher.Name())
	defer span.End()

	err := p.run(ctx, log, summary)
	summary.Duration = time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	p.metrics.RecordPipelineRun(ctx, p.fetcher.Name(), status, summary.Duration)

	log.Info("pipeline run finished",
		logging.Status(status),
		slog.Int("fetched", summary.Fetched),
		slog.Int("skipped", summary.Skipped),
		slog.Int("triaged", summary.Triaged),
		slog.Int("failed_batches", summary.FailedBatches),
		slog.Duration(logging.KeyDuration, summary.Duration),
		logging.Err(err),
	)

	return summary, err
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, summary *Summary) error {
	// Fetch
	fetchCtx, fetchSpan := instrumentation.StartStageSpan(ctx, "fetch")
	messages, err := p.fetcher.Fetch(fetchCtx, p.opts.MaxMessages)
	fetchSpan.End()
	if err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}
	summary.Fetched = len(messages)
	p.metrics.RecordMessagesFetched(ctx, p.fetcher.Name(), len(messages))
	log.Debug("fetched messages", logging.Stage("fetch"), slog.Int("count", len(messages)))

	if err := ctx.Err(); err != nil {
		return err
	}

	// Dedupe against the cache, compute signals for what is left
	fresh, err := p.dedupe(ctx, log, messages, summary)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Model analysis in bounded concurrent batches
	verdicts := p.analyze(ctx, log, fresh, summary)

	if err := ctx.Err(); err != nil {
		return err
	}

	// Merge and persist
	now := time.Now().UTC()
	for _, a := range fresh {
		verdict := verdicts[a.fingerprint]

		result := triage.Merge(a.msg, a.signals, verdict, now)
		if err := p.store.SaveTriage(ctx, summary.RunID, result); err != nil {
			return fmt.Errorf("save triage record: %w", err)
		}
		if err := p.store.MarkSeen(ctx, a.fingerprint); err != nil {
			return fmt.Errorf("mark message seen: %w", err)
		}

		summary.Triaged++
		if result.LLMAnalyzed {
			summary.LLMAnalyzed++
			p.metrics.RecordMessageTriaged(ctx, instrumentation.ModeLLM)
		} else {
			summary.HeuristicOnly++
			p.metrics.RecordMessageTriaged(ctx, instrumentation.ModeHeuristic)
		}
	}

	// Drop cache entries past the TTL
	pruned, err := p.store.PruneExpired(ctx, p.opts.TTL)
	if err != nil {
		return fmt.Errorf("prune expired records: %w", err)
	}
	summary.Pruned = pruned

	return nil
}

// dedupe drops messages the cache has seen within the TTL and computes
// heuristic signals for the rest.
func (p *Pipeline) dedupe(ctx context.Context, log *slog.Logger, messages []*mail.Message, summary *Summary) ([]analyzed, error) {
	ctx, span := instrumentation.StartStageSpan(ctx, "dedupe")
	defer span.End()

	fresh := make([]analyzed, 0, len(messages))
	for _, msg := range messages {
		fp := msg.Fingerprint()

		seen, err := p.store.Seen(ctx, fp, p.opts.TTL)
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		if seen {
			summary.Skipped++
			p.metrics.RecordMessageSkipped(ctx, instrumentation.SkipCached)
			log.Debug("skipping cached message",
				logging.Stage("dedupe"),
				logging.SenderHash(msg.From),
			)
			continue
		}

		fresh = append(fresh, analyzed{
			msg:         msg,
			fingerprint: fp,
			signals:     p.heuristic.Analyze(msg),
		})
	}

	return fresh, nil
}

// analyze runs the model over fresh messages in concurrent batches and
// returns verdicts keyed by fingerprint. Batch failures are logged and
// counted; the affected messages fall back to heuristic-only records.
func (p *Pipeline) analyze(ctx context.Context, log *slog.Logger, fresh []analyzed, summary *Summary) map[string]*triage.Verdict {
	verdicts := make(map[string]*triage.Verdict)
	if p.analyzer == nil || len(fresh) == 0 {
		return verdicts
	}

	ctx, span := instrumentation.StartStageSpan(ctx, "analyze")
	defer span.End()

	batches := p.chunk(fresh)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			batchCtx, batchSpan := instrumentation.StartBatchSpan(gctx, p.analyzer.Model(), i)
			defer batchSpan.End()

			senders := make([]string, len(batch))
			items := make([]llm.BatchItem, len(batch))
			for j, a := range batch {
				senders[j] = a.msg.From
				items[j] = llm.BatchItem{
					Key:     a.fingerprint,
					From:    a.msg.From,
					Subject: a.msg.Subject,
					Excerpt: a.msg.Excerpt(p.opts.ExcerptChars),
				}
			}

			submission := instrumentation.NewSubmission(summary.RunID, p.analyzer.Model(), i).
				WithSenders(senders).
				WithSpanContext(batchCtx)

			result, err := p.analyzer.AnalyzeBatch(batchCtx, items)
			p.audit.LogSubmission(submission.Complete(err))

			status := instrumentation.StatusSuccess
			if err != nil {
				status = instrumentation.StatusError
				instrumentation.SetSpanError(batchSpan, err)
			}
			p.metrics.RecordLLMRequest(batchCtx, p.analyzer.Model(), status, submission.Duration)

			if err != nil {
				// Cancellation must stop the remaining batches; anything
				// else degrades this batch to heuristics.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("batch analysis failed, falling back to heuristics",
					logging.Stage("analyze"),
					logging.Batch(i),
					logging.Err(err),
				)
				mu.Lock()
				summary.FailedBatches++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			for key, verdict := range result {
				verdicts[key] = verdict
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("batch analysis aborted", logging.Stage("analyze"), logging.Err(err))
	}

	return verdicts
}

func (p *Pipeline) chunk(fresh []analyzed) [][]analyzed {
	var batches [][]analyzed
	for start := 0; start < len(fresh); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		batches = append(batches, fresh[start:end])
	}
	return batches
}
