package summary

import (
	"encoding/json"
	"sort"

	"github.com/dshills/brief/internal/budget"
)

// TokenAnalysis is the read-only token accounting of one allocation.
type TokenAnalysis struct {
	sizes    []budget.Sized
	excluded []budget.Exclusion
}

// NewTokenAnalysis copies the included sizes (kept in allocation order) and
// the exclusions (reordered by estimate, largest first).
func NewTokenAnalysis(included []budget.Sized, excluded []budget.Exclusion) TokenAnalysis {
	a := TokenAnalysis{
		sizes:    append([]budget.Sized(nil), included...),
		excluded: append([]budget.Exclusion(nil), excluded...),
	}
	sort.SliceStable(a.excluded, func(i, j int) bool { return a.excluded[i].Tokens > a.excluded[j].Tokens })
	return a
}

// Total returns the sum of all included estimates.
func (a TokenAnalysis) Total() int {
	total := 0
	for _, s := range a.sizes {
		total += s.Tokens
	}
	return total
}

// Count returns the number of included files.
func (a TokenAnalysis) Count() int { return len(a.sizes) }

// Largest returns the included file with the highest estimate. Ties go to the
// file that came first in allocation order. ok is false when nothing was
// included.
func (a TokenAnalysis) Largest() (largest budget.Sized, ok bool) {
	for _, s := range a.sizes {
		if !ok || s.Tokens > largest.Tokens {
			largest, ok = s, true
		}
	}
	return largest, ok
}

// SortedDescending returns the included files ordered by estimate, largest
// first, with ties in allocation order.
func (a TokenAnalysis) SortedDescending() []budget.Sized {
	return budget.Selection{Included: a.sizes}.Descending()
}

// Sizes returns the included files in allocation order.
func (a TokenAnalysis) Sizes() []budget.Sized {
	return append([]budget.Sized(nil), a.sizes...)
}

// Excluded returns the excluded files, largest estimate first.
func (a TokenAnalysis) Excluded() []budget.Exclusion {
	return append([]budget.Exclusion(nil), a.excluded...)
}

// ExcludedCount returns the number of excluded files.
func (a TokenAnalysis) ExcludedCount() int { return len(a.excluded) }

type analysisJSON struct {
	TotalTokens   int                `json:"total_tokens"`
	FileCount     int                `json:"file_count"`
	LargestFile   *budget.Sized      `json:"largest_file"`
	FilesByTokens []budget.Sized     `json:"files_sorted_by_tokens"`
	ExcludedCount int                `json:"excluded_count"`
	Excluded      []budget.Exclusion `json:"excluded_files"`
}

func (a TokenAnalysis) MarshalJSON() ([]byte, error) {
	out := analysisJSON{
		TotalTokens:   a.Total(),
		FileCount:     a.Count(),
		FilesByTokens: a.SortedDescending(),
		ExcludedCount: a.ExcludedCount(),
		Excluded:      a.Excluded(),
	}
	if l, ok := a.Largest(); ok {
		out.LargestFile = &l
	}
	if out.FilesByTokens == nil {
		out.FilesByTokens = []budget.Sized{}
	}
	if out.Excluded == nil {
		out.Excluded = []budget.Exclusion{}
	}
	return json.Marshal(out)
}
