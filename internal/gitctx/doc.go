// Package gitctx extracts per-file diffs and commit metadata from a git
// repository.
//
// It supports four sources (unstaged, staged, commit, and range) by shelling
// out to git. The combined diff is split at each "diff --git" header into one
// [FileDiff] per file, and include/exclude glob patterns are applied per
// file. Commit subjects in scope are returned as titles so callers can
// cross-reference task ids.
//
// [Split] is exported for diffs that come from elsewhere, such as a GitHub
// pull request.
package gitctx
