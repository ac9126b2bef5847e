// Package github provides a minimal GitHub REST API client for summarizing a
// pull request.
//
// It fetches the PR's unified diff and the subject lines of its commits, which
// feed the same per-file candidate pipeline as local git diffs. The repository
// is detected from the local git remote and requests are authenticated with
// the GITHUB_TOKEN environment variable.
package github
