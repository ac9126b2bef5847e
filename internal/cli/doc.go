// Package cli implements the brief command-line interface using cobra.
//
// Commands: summarize and analyze (each with unstaged, staged, commit, range
// and pr sources), serve, config, models, cache and version. Errors map to
// deterministic exit codes.
package cli
