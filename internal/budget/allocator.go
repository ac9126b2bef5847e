package budget

import (
	"fmt"
	"sort"
)

// DefaultCapPercent is the share of the total budget a single candidate may
// use when no explicit per-item cap is configured.
const DefaultCapPercent = 25

// Reason says why a candidate was left out of a selection.
type Reason string

const (
	ReasonExceedsPerItemCap  Reason = "exceeds-per-item-cap"
	ReasonExceedsTotalBudget Reason = "would-exceed-total-budget"
)

// Candidate is one unit of content competing for space in the request.
// Path must be unique within a request.
type Candidate struct {
	Path    string
	Content string
}

// Sized pairs a candidate path with its token estimate.
type Sized struct {
	Path   string `json:"path"`
	Tokens int    `json:"tokens"`
}

// Exclusion records a candidate that was not admitted.
type Exclusion struct {
	Path   string `json:"path"`
	Tokens int    `json:"tokens"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail"`
}

// Selection is the result of one allocation. Selected and Included are
// parallel and ordered by ascending estimate. Excluded is in evaluation order.
type Selection struct {
	Selected     []Candidate
	Included     []Sized
	Excluded     []Exclusion
	SystemTokens int
	Total        int
	Budget       int
	PerItemCap   int
}

// Descending returns a copy of Included ordered by estimate, largest first.
// Equal estimates keep their allocation order.
func (s Selection) Descending() []Sized {
	out := make([]Sized, len(s.Included))
	copy(out, s.Included)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tokens > out[j].Tokens })
	return out
}

// Estimator is the token estimation the allocator depends on.
type Estimator interface {
	Estimate(content string) int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithPerItemCap sets an explicit per-item cap. Zero is a valid cap and
// excludes every candidate.
func WithPerItemCap(n int) Option {
	return func(a *Allocator) {
		a.perItemCap = n
		a.capSet = true
	}
}

// Allocator performs greedy, smallest-first allocation against a budget.
type Allocator struct {
	estimator  Estimator
	total      int
	perItemCap int
	capSet     bool
}

// NewAllocator creates an Allocator for the given total token budget.
func NewAllocator(est Estimator, total int, opts ...Option) *Allocator {
	a := &Allocator{estimator: est, total: total}
	for _, opt := range opts {
		opt(a)
	}
	if !a.capSet {
		a.perItemCap = total * DefaultCapPercent / 100
	}
	return a
}

// Budget returns the total token budget.
func (a *Allocator) Budget() int { return a.total }

// PerItemCap returns the effective per-item cap.
func (a *Allocator) PerItemCap() int { return a.perItemCap }

type estimated struct {
	cand   Candidate
	tokens int
}

// Allocate estimates each candidate and admits them smallest first. The
// running total starts at systemTokens so the instruction text counts
// against the budget. Reaching the budget exactly is allowed. Paths must be
// unique; a repeated path fails with *DuplicatePathError before anything is
// estimated.
func (a *Allocator) Allocate(cands []Candidate, systemTokens int) (Selection, error) {
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.Path]; dup {
			return Selection{SystemTokens: systemTokens, Budget: a.total, PerItemCap: a.perItemCap},
				&DuplicatePathError{Path: c.Path}
		}
		seen[c.Path] = struct{}{}
	}

	items := make([]estimated, len(cands))
	for i, c := range cands {
		items[i] = estimated{cand: c, tokens: a.estimator.Estimate(c.Content)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].tokens < items[j].tokens })

	sel := Selection{
		SystemTokens: systemTokens,
		Budget:       a.total,
		PerItemCap:   a.perItemCap,
	}
	running := systemTokens
	var overCap, overBudget int

	for _, it := range items {
		switch {
		case it.tokens > a.perItemCap:
			overCap++
			sel.Excluded = append(sel.Excluded, Exclusion{
				Path:   it.cand.Path,
				Tokens: it.tokens,
				Reason: ReasonExceedsPerItemCap,
				Detail: fmt.Sprintf("estimated %d tokens exceeds per-file cap of %d", it.tokens, a.perItemCap),
			})
		case running+it.tokens > a.total:
			overBudget++
			sel.Excluded = append(sel.Excluded, Exclusion{
				Path:   it.cand.Path,
				Tokens: it.tokens,
				Reason: ReasonExceedsTotalBudget,
				Detail: fmt.Sprintf("estimated %d tokens would bring total to %d of %d", it.tokens, running+it.tokens, a.total),
			})
		default:
			running += it.tokens
			sel.Selected = append(sel.Selected, it.cand)
			sel.Included = append(sel.Included, Sized{Path: it.cand.Path, Tokens: it.tokens})
		}
	}
	sel.Total = running

	if len(sel.Selected) == 0 {
		return sel, &AllocationError{Candidates: len(cands), OverCap: overCap, OverBudget: overBudget}
	}
	return sel, nil
}
