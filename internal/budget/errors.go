package budget

import "fmt"

// AllocationError reports that no candidate could be admitted.
type AllocationError struct {
	Candidates int
	OverCap    int
	OverBudget int
}

func (e *AllocationError) Error() string {
	if e.Candidates == 0 {
		return "no files to summarize: candidate set is empty"
	}
	return fmt.Sprintf("no files fit the token budget: %d candidates, %d over per-file cap, %d over total budget",
		e.Candidates, e.OverCap, e.OverBudget)
}

// DuplicatePathError reports a candidate path that appears more than once in
// one request.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate file path %q: each file may appear only once", e.Path)
}
