// Package tokens estimates how many model tokens a piece of diff content will
// cost.
//
// Estimation is a character-count heuristic, not a tokenizer. Each model
// family has a [Profile] with a characters-per-token ratio, a fixed message
// overhead, and a safety buffer multiplier. [ProfileFor] picks the profile by
// matching the model identifier against a fixed prefix table; unknown models
// fall back to the most conservative profile.
//
// The profile table is built once at package initialization and never
// modified, so concurrent callers may read it freely.
package tokens
