package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/logging"
	"github.com/dshills/brief/internal/metrics"
	"github.com/dshills/brief/internal/providers"
	"github.com/dshills/brief/internal/tokens"
	"github.com/dshills/brief/internal/tracker"
)

// ErrNoProvider is returned by Summarize on a service built without a model
// provider.
var ErrNoProvider = errors.New("no model provider configured")

// Cache stores model responses by key. Implementations hash the key.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string) error
}

// Tracker resolves task references found in commit titles.
type Tracker interface {
	TasksAndStories(ctx context.Context, titles []string) (tracker.Result, error)
}

// Config holds the per-process settings of a Service.
type Config struct {
	Provider       string
	Model          string
	Instructions   string
	MaxTokens      int
	MaxFileTokens  *int // nil means 25% of MaxTokens
	ResponseTokens int
	Timeout        time.Duration
}

// Request is one summary request.
type Request struct {
	Candidates []budget.Candidate
	// Titles are commit subjects used for tracker cross-referencing.
	Titles []string
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithCache enables response caching for Summarize.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithMetrics records allocation and model metrics.
func WithMetrics(m *metrics.Collector) Option { return func(s *Service) { s.metrics = m } }

// WithTracker enables task cross-referencing.
func WithTracker(t Tracker) Option { return func(s *Service) { s.tracker = t } }

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// Service runs summary requests. It holds no per-request state and is safe
// for concurrent use when its collaborators are.
type Service struct {
	cfg          Config
	completer    providers.Completer
	estimator    tokens.Estimator
	allocator    *budget.Allocator
	systemTokens int

	cache   Cache
	metrics *metrics.Collector
	tracker Tracker
	log     *slog.Logger
}

// NewService creates a Service. completer may be nil for a service that only
// runs Analyze.
func NewService(cfg Config, completer providers.Completer, opts ...Option) *Service {
	est := tokens.NewEstimator(cfg.Model)
	var allocOpts []budget.Option
	if cfg.MaxFileTokens != nil {
		allocOpts = append(allocOpts, budget.WithPerItemCap(*cfg.MaxFileTokens))
	}
	s := &Service{
		cfg:          cfg,
		completer:    completer,
		estimator:    est,
		allocator:    budget.NewAllocator(est, cfg.MaxTokens, allocOpts...),
		systemTokens: est.Estimate(cfg.Instructions),
		log:          logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Instructions returns the system instruction text.
func (s *Service) Instructions() string { return s.cfg.Instructions }

// Estimator returns the estimator bound to the configured model.
func (s *Service) Estimator() tokens.Estimator { return s.estimator }

// PerItemCap returns the effective per-file token cap.
func (s *Service) PerItemCap() int { return s.allocator.PerItemCap() }

// SystemTokens returns the estimated cost of the instructions, which every
// request pays before any file is admitted.
func (s *Service) SystemTokens() int { return s.systemTokens }

// Analyze allocates and assembles the context without calling the model.
func (s *Service) Analyze(ctx context.Context, req Request) (*Response, error) {
	p, err := s.prepare(req, ModeAnalyze)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(ResponseParams{
		RunID:    uuid.New().String(),
		Mode:     ModeAnalyze,
		Provider: s.providerName(),
		Model:    s.cfg.Model,
		Context:  p.context,
		Analysis: p.analysis,
		Tracker:  s.enrich(ctx, req.Titles),
	})
	s.metrics.RecordRequest(string(ModeAnalyze), "ok")
	return resp, nil
}

// Summarize allocates, assembles and sends the context to the model. The
// configured timeout applies to the model call only.
func (s *Service) Summarize(ctx context.Context, req Request) (*Response, error) {
	if s.completer == nil {
		return nil, ErrNoProvider
	}
	p, err := s.prepare(req, ModeSummarize)
	if err != nil {
		return nil, err
	}
	trk := s.enrich(ctx, req.Titles)

	params := ResponseParams{
		RunID:    uuid.New().String(),
		Mode:     ModeSummarize,
		Provider: s.providerName(),
		Model:    s.cfg.Model,
		Context:  p.context,
		Analysis: p.analysis,
		Tracker:  trk,
	}

	key := s.cacheKey(p.context)
	if s.cache != nil {
		if text, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheHit()
			s.log.Info("using cached summary", "run_id", params.RunID)
			params.Summary = text
			params.Cached = true
			s.metrics.RecordRequest(string(ModeSummarize), "ok")
			return NewResponse(params), nil
		}
		s.metrics.RecordCacheMiss()
	}

	text, err := s.complete(ctx, p.context)
	if err != nil {
		s.metrics.RecordRequest(string(ModeSummarize), "model_error")
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Put(key, text); err != nil {
			s.log.Warn("caching summary failed", "error", err)
		}
	}

	params.Summary = text
	s.metrics.RecordRequest(string(ModeSummarize), "ok")
	return NewResponse(params), nil
}

type prepared struct {
	context  Context
	analysis TokenAnalysis
}

func (s *Service) prepare(req Request, mode Mode) (prepared, error) {
	sel, err := s.allocator.Allocate(req.Candidates, s.systemTokens)
	s.recordSelection(sel)
	if err != nil {
		status := "allocation_error"
		var dupErr *budget.DuplicatePathError
		if errors.As(err, &dupErr) {
			status = "invalid_request"
		}
		s.log.Warn("allocation failed", "mode", mode, "error", err)
		s.metrics.RecordRequest(string(mode), status)
		return prepared{}, err
	}

	s.log.Debug("allocation complete",
		"mode", mode,
		"included", len(sel.Included),
		"excluded", len(sel.Excluded),
		"total_tokens", sel.Total,
		"budget", sel.Budget,
		"per_item_cap", sel.PerItemCap,
	)
	for _, ex := range sel.Excluded {
		s.log.Info("file excluded", "path", ex.Path, "tokens", ex.Tokens, "reason", ex.Reason)
	}

	return prepared{
		context:  Assemble(sel.Selected, s.cfg.Instructions),
		analysis: NewTokenAnalysis(sel.Included, sel.Excluded),
	}, nil
}

func (s *Service) recordSelection(sel budget.Selection) {
	if s.metrics == nil {
		return
	}
	for _, in := range sel.Included {
		s.metrics.RecordCandidate(metrics.OutcomeIncluded, "", in.Tokens)
	}
	for _, ex := range sel.Excluded {
		s.metrics.RecordCandidate(metrics.OutcomeExcluded, string(ex.Reason), ex.Tokens)
	}
	if len(sel.Included) > 0 {
		s.metrics.RecordBudgetUse(sel.Total, sel.Budget)
	}
}

func (s *Service) complete(ctx context.Context, c Context) (string, error) {
	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.completer.Complete(callCtx, providers.CompletionRequest{
		Model:     s.cfg.Model,
		Messages:  c.messages(),
		MaxTokens: s.cfg.ResponseTokens,
	})
	elapsed := time.Since(start)
	s.metrics.RecordModelCall(s.completer.Name(), s.cfg.Model, elapsed, resp.TokensUsed, err)

	if err != nil {
		s.log.Error("model call failed", "provider", s.completer.Name(), "model", s.cfg.Model, "elapsed", elapsed, "error", err)
		return "", &ModelInvocationError{
			Provider: s.completer.Name(),
			Model:    s.cfg.Model,
			Context:  c.clone(),
			Err:      err,
		}
	}
	s.log.Info("model call complete", "provider", s.completer.Name(), "model", s.cfg.Model,
		"elapsed", elapsed, "tokens_used", resp.TokensUsed)
	return resp.Content, nil
}

// enrich resolves tracker references. Failures are logged and yield nil.
func (s *Service) enrich(ctx context.Context, titles []string) *tracker.Result {
	if s.tracker == nil || len(tracker.TaskIDs(titles)) == 0 {
		return nil
	}
	res, err := s.tracker.TasksAndStories(ctx, titles)
	if err != nil {
		s.log.Warn("tracker lookup failed", "error", err)
		return nil
	}
	return &res
}

func (s *Service) providerName() string {
	if s.completer != nil {
		return s.completer.Name()
	}
	return s.cfg.Provider
}

func (s *Service) cacheKey(c Context) string {
	return fmt.Sprintf("%s:%s:%s", s.providerName(), s.cfg.Model, c.String())
}
