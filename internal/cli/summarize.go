package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/cache"
	"github.com/dshills/brief/internal/config"
	"github.com/dshills/brief/internal/github"
	"github.com/dshills/brief/internal/gitctx"
	"github.com/dshills/brief/internal/logging"
	"github.com/dshills/brief/internal/metrics"
	"github.com/dshills/brief/internal/output"
	"github.com/dshills/brief/internal/providers"
	"github.com/dshills/brief/internal/redact"
	"github.com/dshills/brief/internal/summary"
	"github.com/dshills/brief/internal/tracker"
)

// Shared summary flags
var (
	flagPaths         string
	flagExclude       string
	flagContextLines  int
	flagProvider      string
	flagModel         string
	flagMaxTokens     int
	flagMaxFileTokens int
	flagInstructions  string
	flagFormat        string
	flagOut           string
	flagNoRedact      bool
	flagNoCache       bool
)

func addSummaryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Total token budget for the request")
	cmd.Flags().IntVar(&flagMaxFileTokens, "max-file-tokens", -1, "Per-file token cap (default 25% of --max-tokens)")
	cmd.Flags().StringVar(&flagInstructions, "instructions", "", "Instruction file (default: built-in prompt)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = strconv.Itoa(flagMaxTokens)
	}
	if flagMaxFileTokens >= 0 {
		m["maxFileTokens"] = strconv.Itoa(flagMaxFileTokens)
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagInstructions != "" {
		m["instructionsFile"] = flagInstructions
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func newLogger(cfg config.Config) *slog.Logger {
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		log, _ = logging.New(logging.Config{}, os.Stderr)
	}
	return log
}

// newCompleter returns the model provider for mode. Dry runs never call a
// model, so they get none.
func newCompleter(cfg config.Config, mode summary.Mode) (providers.Completer, error) {
	if mode != summary.ModeSummarize {
		return nil, nil
	}
	return providers.New(cfg.Provider, cfg.Model)
}

// buildService wires a summary.Service from cfg around completer. The
// response cache is only attached when there is a completer to cache for.
// The returned func releases the cache.
func buildService(cfg config.Config, completer providers.Completer, log *slog.Logger, m *metrics.Collector) (*summary.Service, func()) {
	instructions, err := summary.LoadInstructions(cfg.InstructionsFile)
	if err != nil {
		log.Warn("instructions unavailable, continuing without", "error", err)
	}

	opts := []summary.Option{summary.WithLogger(log), summary.WithMetrics(m)}
	cleanup := func() {}

	if completer != nil && cfg.Cache.Enabled && !flagNoCache {
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			log.Warn("response cache unavailable", "error", err)
		} else {
			opts = append(opts, summary.WithCache(c))
			cleanup = func() { c.Close() }
		}
	}

	if cfg.Tracker.URL != "" {
		tc, err := tracker.NewClient(cfg.Tracker.URL)
		if err != nil {
			log.Warn("task tracker disabled", "error", err)
		} else {
			opts = append(opts, summary.WithTracker(tc))
		}
	}

	svc := summary.NewService(summary.Config{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		Instructions:   instructions,
		MaxTokens:      cfg.MaxTokens,
		MaxFileTokens:  cfg.MaxFileTokens,
		ResponseTokens: cfg.ResponseTokens,
		Timeout:        cfg.Timeout(),
	}, completer, opts...)
	return svc, cleanup
}

func newRedactor(cfg config.Config) *redact.Redactor {
	if flagNoRedact {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
		return nil
	}
	return redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths)
}

// runSummary runs one request over src and writes the report.
func runSummary(mode summary.Mode, src gitctx.DiffResult, cfg config.Config) {
	log := newLogger(cfg)

	cands := make([]budget.Candidate, len(src.Files))
	for i, f := range src.Files {
		cands[i] = budget.Candidate(f)
	}
	if n := newRedactor(cfg).ApplyAll(cands); n > 0 {
		log.Debug("redacted candidates", "count", n)
	}

	completer, err := newCompleter(cfg, mode)
	if err != nil {
		reportError(err)
		return
	}
	svc, cleanup := buildService(cfg, completer, log, nil)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := summary.Request{Candidates: cands, Titles: src.Titles}
	var resp *summary.Response
	if mode == summary.ModeAnalyze {
		resp, err = svc.Analyze(ctx, req)
	} else {
		resp, err = svc.Summarize(ctx, req)
	}
	if err != nil {
		reportError(err)
		return
	}

	if err := output.WriteReport(resp, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
	}
}

// reportError prints err and sets the exit code for it.
func reportError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var allocErr *budget.AllocationError
	if errors.As(err, &allocErr) && allocErr.Candidates > 0 {
		fmt.Fprintln(os.Stderr, "Hint: raise --max-tokens or --max-file-tokens, or narrow the diff with --paths/--exclude")
	}
	if providers.IsAuthError(err) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

var (
	flagParent    string
	flagMergeBase bool
	flagGHOwner   string
	flagGHRepo    string
)

// sourceCmds builds the unstaged, staged, commit, range and pr subcommands
// for one mode.
func sourceCmds(mode summary.Mode) []*cobra.Command {
	verb := "Summarize"
	if mode == summary.ModeAnalyze {
		verb = "Analyze"
	}

	run := func(fetch func(cfg config.Config, args []string) (gitctx.DiffResult, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(buildOverrides())
			if err != nil {
				return err
			}
			src, err := fetch(cfg, args)
			if err != nil {
				reportError(err)
				return nil
			}
			runSummary(mode, src, cfg)
			return nil
		}
	}

	unstaged := &cobra.Command{
		Use:   "unstaged",
		Short: verb + " unstaged changes (working tree vs index)",
		RunE: run(func(cfg config.Config, _ []string) (gitctx.DiffResult, error) {
			return gitctx.Unstaged(buildDiffOpts(cfg))
		}),
	}
	staged := &cobra.Command{
		Use:   "staged",
		Short: verb + " staged changes (index vs HEAD)",
		RunE: run(func(cfg config.Config, _ []string) (gitctx.DiffResult, error) {
			return gitctx.Staged(buildDiffOpts(cfg))
		}),
	}
	commit := &cobra.Command{
		Use:   "commit <sha>",
		Short: verb + " a specific commit",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cfg config.Config, args []string) (gitctx.DiffResult, error) {
			return gitctx.Commit(args[0], flagParent, buildDiffOpts(cfg))
		}),
	}
	commit.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")

	rng := &cobra.Command{
		Use:   "range <revRange>",
		Short: verb + " a revision range (e.g., origin/main..HEAD)",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cfg config.Config, args []string) (gitctx.DiffResult, error) {
			return gitctx.Range(args[0], flagMergeBase, buildDiffOpts(cfg))
		}),
	}
	rng.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")

	pr := &cobra.Command{
		Use:   "pr <number>",
		Short: verb + " a GitHub pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prNumber, err := strconv.Atoi(args[0])
			if err != nil || prNumber <= 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
				exitCode = ExitUsageError
				return nil
			}
			return run(func(cfg config.Config, _ []string) (gitctx.DiffResult, error) {
				return fetchPR(cmd.Context(), prNumber, buildDiffOpts(cfg))
			})(cmd, args)
		},
	}
	pr.Flags().StringVar(&flagGHOwner, "owner", "", "Repository owner (default: from git remote)")
	pr.Flags().StringVar(&flagGHRepo, "repo", "", "Repository name (default: from git remote)")

	cmds := []*cobra.Command{unstaged, staged, commit, rng, pr}
	for _, c := range cmds {
		addSummaryFlags(c)
	}
	return cmds
}

// fetchPR builds a DiffResult from a GitHub pull request. Commit subjects
// are best effort.
func fetchPR(ctx context.Context, prNumber int, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	owner, repo := flagGHOwner, flagGHRepo
	if owner == "" || repo == "" {
		detected, detectedRepo, err := github.DetectRepo()
		if err != nil {
			return gitctx.DiffResult{}, fmt.Errorf("%w (use --owner and --repo to specify manually)", err)
		}
		if owner == "" {
			owner = detected
		}
		if repo == "" {
			repo = detectedRepo
		}
	}

	gh, err := github.NewClient()
	if err != nil {
		return gitctx.DiffResult{}, err
	}
	diff, err := gh.GetPRDiff(ctx, owner, repo, prNumber)
	if err != nil {
		return gitctx.DiffResult{}, err
	}
	titles, err := gh.GetPRCommits(ctx, owner, repo, prNumber)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot list PR commits: %v\n", err)
	}

	return gitctx.DiffResult{
		Files:  gitctx.Split(diff, opts),
		Titles: titles,
		Mode:   "pr",
		Range:  fmt.Sprintf("%s/%s#%d", owner, repo, prNumber),
	}, nil
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize code changes with the configured model",
	Long: "Select the changed files that fit the token budget, assemble them with the " +
		"summary instructions and send them to the model. Use subcommands to pick the changes.",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Dry run: show which files fit the token budget",
	Long: "Run the same selection as summarize and report the token analysis and context " +
		"without calling the model.",
}

func init() {
	summarizeCmd.AddCommand(sourceCmds(summary.ModeSummarize)...)
	analyzeCmd.AddCommand(sourceCmds(summary.ModeAnalyze)...)
}
