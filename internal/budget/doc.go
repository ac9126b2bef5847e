// Package budget decides which candidate diffs fit into a model request.
//
// [Allocator] estimates every candidate, orders them smallest first, and
// admits them greedily while two limits hold: no single candidate may exceed
// the per-item cap, and the running total (which starts at the system
// instruction cost) may not exceed the total budget. Everything that is not
// admitted is recorded as an [Exclusion] with a machine-readable [Reason].
//
// Allocation is deterministic: the same candidates, profile and limits always
// produce the same [Selection]. If nothing can be admitted the allocator
// returns an [*AllocationError] rather than an empty selection.
package budget
