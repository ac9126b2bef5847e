package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/metrics"
	"github.com/dshills/brief/internal/providers"
	"github.com/dshills/brief/internal/tracker"
)

type fakeCompleter struct {
	mu       sync.Mutex
	calls    int
	last     providers.CompletionRequest
	content  string
	err      error
	blockCtx bool
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()
	if f.blockCtx {
		<-ctx.Done()
		return providers.CompletionResponse{}, ctx.Err()
	}
	if f.err != nil {
		return providers.CompletionResponse{}, f.err
	}
	return providers.CompletionResponse{Content: f.content, TokensUsed: 42}, nil
}

type mapCache struct {
	entries map[string]string
}

func (m *mapCache) Get(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *mapCache) Put(key, value string) error {
	m.entries[key] = value
	return nil
}

type fakeTracker struct {
	res tracker.Result
	err error
}

func (f fakeTracker) TasksAndStories(ctx context.Context, titles []string) (tracker.Result, error) {
	return f.res, f.err
}

func file(path string, size int) budget.Candidate {
	return budget.Candidate{Path: path, Content: strings.Repeat("a", size)}
}

// Under gpt-3.5 estimates: 30 bytes -> 11, 100 -> 31, 1000 -> 279, empty -> 4.
func testConfig(maxTokens int) Config {
	return Config{
		Provider:  "fake",
		Model:     "gpt-3.5-turbo",
		MaxTokens: maxTokens,
	}
}

func TestAnalyze_OrdersAscendingAndAccounts(t *testing.T) {
	s := NewService(testConfig(4000), nil)
	resp, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{
		file("big.go", 1000), file("small.go", 30), file("mid.go", 100),
	}})
	require.NoError(t, err)

	assert.Equal(t, ModeAnalyze, resp.Mode())
	assert.Empty(t, resp.Summary())
	assert.NotEmpty(t, resp.RunID())

	c := resp.Context()
	require.Len(t, c, 2)
	assert.Equal(t, RoleSystem, c[0].Role)
	assert.Equal(t, RoleUser, c[1].Role)
	want := strings.Repeat("a", 30) + "\n" + strings.Repeat("a", 100) + "\n" + strings.Repeat("a", 1000)
	assert.Equal(t, want, c.User())

	a := resp.Analysis()
	assert.Equal(t, 321, a.Total())
	assert.Equal(t, 3, a.Count())
	largest, ok := a.Largest()
	require.True(t, ok)
	assert.Equal(t, budget.Sized{Path: "big.go", Tokens: 279}, largest)
	assert.Equal(t, 0, a.ExcludedCount())
}

func TestAnalyze_DuplicatePathRejected(t *testing.T) {
	s := NewService(testConfig(4000), nil)
	_, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{
		file("a.go", 3), file("a.go", 7),
	}})
	var derr *budget.DuplicatePathError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "a.go", derr.Path)
}

func TestAnalyze_ExcludedSortedDescending(t *testing.T) {
	s := NewService(testConfig(100), nil)
	resp, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{
		file("mid.go", 100), file("small.go", 30), file("big.go", 1000),
	}})
	require.NoError(t, err)

	ex := resp.Analysis().Excluded()
	require.Len(t, ex, 2)
	assert.Equal(t, "big.go", ex[0].Path)
	assert.Equal(t, 279, ex[0].Tokens)
	assert.Equal(t, "mid.go", ex[1].Path)
	assert.Equal(t, budget.ReasonExceedsPerItemCap, ex[1].Reason)
	assert.Equal(t, strings.Repeat("a", 30), resp.Context().User())
}

func TestAnalyze_AllocationFailure(t *testing.T) {
	zero := 0
	cfg := testConfig(4000)
	cfg.MaxFileTokens = &zero
	s := NewService(cfg, nil)

	_, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{file("a.go", 10)}})
	var aerr *budget.AllocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.OverCap)
}

func TestAnalyze_SystemInstructionsCountAgainstBudget(t *testing.T) {
	cfg := testConfig(100)
	cfg.Instructions = strings.Repeat("i", 250) // 72 tokens
	noCap := 100
	cfg.MaxFileTokens = &noCap
	s := NewService(cfg, nil)

	resp, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{
		file("a.go", 30), file("b.go", 30), file("c.go", 30),
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Analysis().Count())
	assert.Equal(t, cfg.Instructions, resp.Context().System())
}

func TestSummarize_SendsAnalyzedContext(t *testing.T) {
	fc := &fakeCompleter{content: "Adds a flag."}
	cfg := testConfig(4000)
	cfg.Instructions = "be brief"
	cfg.ResponseTokens = 512
	s := NewService(cfg, fc)

	req := Request{Candidates: []budget.Candidate{file("x.go", 100), file("y.go", 30)}}
	dry, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	live, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Adds a flag.", live.Summary())
	assert.Equal(t, ModeSummarize, live.Mode())
	assert.Equal(t, dry.Context(), live.Context())
	assert.Equal(t, dry.Analysis().Total(), live.Analysis().Total())

	require.Equal(t, 1, fc.calls)
	assert.Equal(t, "gpt-3.5-turbo", fc.last.Model)
	assert.Equal(t, 512, fc.last.MaxTokens)
	require.Len(t, fc.last.Messages, 2)
	assert.Equal(t, providers.RoleSystem, fc.last.Messages[0].Role)
	assert.Equal(t, "be brief", fc.last.Messages[0].Content)
	assert.Equal(t, live.Context().User(), fc.last.Messages[1].Content)
}

func TestSummarize_ModelErrorCarriesContext(t *testing.T) {
	cause := errors.New("upstream exploded")
	fc := &fakeCompleter{err: cause}
	s := NewService(testConfig(4000), fc)

	resp, err := s.Summarize(context.Background(), Request{Candidates: []budget.Candidate{file("x.go", 30)}})
	assert.Nil(t, resp)

	var merr *ModelInvocationError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fake", merr.Provider)
	assert.Len(t, merr.Context, 2)
	assert.Contains(t, err.Error(), strings.Repeat("a", 30))
	assert.Equal(t, 1, fc.calls)
}

func TestSummarize_TimeoutAppliesToModelCall(t *testing.T) {
	fc := &fakeCompleter{blockCtx: true}
	cfg := testConfig(4000)
	cfg.Timeout = 20 * time.Millisecond
	s := NewService(cfg, fc)

	_, err := s.Summarize(context.Background(), Request{Candidates: []budget.Candidate{file("x.go", 30)}})
	var merr *ModelInvocationError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSummarize_AllocationFailureSkipsModel(t *testing.T) {
	fc := &fakeCompleter{content: "x"}
	s := NewService(testConfig(4000), fc)

	_, err := s.Summarize(context.Background(), Request{})
	var aerr *budget.AllocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 0, fc.calls)
}

func TestSummarize_NoProvider(t *testing.T) {
	s := NewService(testConfig(4000), nil)
	_, err := s.Summarize(context.Background(), Request{Candidates: []budget.Candidate{file("x.go", 30)}})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSummarize_UsesCache(t *testing.T) {
	fc := &fakeCompleter{content: "first"}
	mc := &mapCache{entries: map[string]string{}}
	s := NewService(testConfig(4000), fc, WithCache(mc))
	req := Request{Candidates: []budget.Candidate{file("x.go", 30)}}

	r1, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, r1.Cached())

	fc.content = "second"
	r2, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, r2.Cached())
	assert.Equal(t, "first", r2.Summary())
	assert.Equal(t, 1, fc.calls)
	assert.NotEqual(t, r1.RunID(), r2.RunID())
}

func TestTrackerEnrichment(t *testing.T) {
	res := tracker.Result{Tasks: []tracker.Task{{ID: 7, Name: "Login"}}}
	s := NewService(testConfig(4000), nil, WithTracker(fakeTracker{res: res}))

	resp, err := s.Analyze(context.Background(), Request{
		Candidates: []budget.Candidate{file("x.go", 30)},
		Titles:     []string{"T#7 login form"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Tracker())
	assert.Equal(t, "Login", resp.Tracker().Tasks[0].Name)
	assert.NotContains(t, resp.Context().User(), "Login")
}

func TestTrackerFailureDoesNotBlock(t *testing.T) {
	fc := &fakeCompleter{content: "ok"}
	s := NewService(testConfig(4000), fc, WithTracker(fakeTracker{err: errors.New("tp down")}))

	resp, err := s.Summarize(context.Background(), Request{
		Candidates: []budget.Candidate{file("x.go", 30)},
		Titles:     []string{"T#7 login form"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Tracker())
	assert.Equal(t, "ok", resp.Summary())
}

func TestService_RecordsMetrics(t *testing.T) {
	m := metrics.NewCollector(nil)
	s := NewService(testConfig(100), nil, WithMetrics(m))

	_, err := s.Analyze(context.Background(), Request{Candidates: []budget.Candidate{
		file("a.go", 30), file("b.go", 1000),
	}})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(m.Registry(), "brief_candidates_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(m.Registry(), "brief_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_ConcurrentAnalyze(t *testing.T) {
	s := NewService(testConfig(4000), nil)
	req := Request{Candidates: []budget.Candidate{file("a.go", 30), file("b.go", 100)}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.Analyze(context.Background(), req)
			if assert.NoError(t, err) {
				assert.Equal(t, 42, resp.Analysis().Total())
			}
		}()
	}
	wg.Wait()
}
