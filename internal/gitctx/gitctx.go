package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	ContextLines int
	Include      []string
	Exclude      []string
}

// FileDiff is the diff section of a single file.
type FileDiff struct {
	Path    string
	Content string
}

// DiffResult holds the per-file diffs and metadata.
type DiffResult struct {
	Files []FileDiff
	// Titles are the subjects of the commits the diff covers.
	Titles []string
	Mode   string
	Range  string
	Repo   RepoMeta
}

// Paths returns the file paths in diff order.
func (r DiffResult) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	diff, err := gitOutput(append([]string{"diff"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(diff, "unstaged", "", nil, opts), nil
}

// Staged returns the diff of index vs HEAD.
func Staged(opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	diff, err := gitOutput(append([]string{"diff", "--cached"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(diff, "staged", "", nil, opts), nil
}

// Commit returns the diff for a specific commit vs its parent. An empty
// parent means the commit's first parent.
func Commit(sha string, parent string, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	titles := commitSubject(sha)
	if parent != "" {
		cmdArgs := append([]string{"diff", parent, sha}, args...)
		diff, err := gitOutput(cmdArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
		}
		return buildResult(diff, "commit", sha, titles, opts), nil
	}
	cmdArgs := append([]string{"diff", sha + "~1", sha}, args...)
	diff, err := gitOutput(cmdArgs...)
	if err != nil {
		// Might be the initial commit
		showArgs := append([]string{"show", "--format=", sha}, args...)
		diff, err = gitOutput(showArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	return buildResult(diff, "commit", sha, titles, opts), nil
}

// Range returns the combined diff for a revision range. Titles are the
// subjects of every commit in the range, oldest first.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	cmdArgs := append([]string{"diff", rangeSpec(revRange, mergeBase)}, args...)
	diff, err := gitOutput(cmdArgs...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	commits, err := ListCommits(revRange, mergeBase)
	if err != nil {
		return DiffResult{}, err
	}
	titles := make([]string, len(commits))
	for i, c := range commits {
		titles[i] = c.Subject
	}
	return buildResult(diff, "range", revRange, titles, opts), nil
}

// Split breaks a unified diff into per-file sections and applies the
// include/exclude filters. Sections without a recognizable path are dropped.
func Split(diff string, opts DiffOptions) []FileDiff {
	var files []FileDiff
	for _, section := range splitDiffSections(diff) {
		path := extractPathFromSection(section)
		if path == "" {
			continue
		}
		if len(opts.Include) > 0 && !MatchesAny(path, opts.Include) {
			continue
		}
		if len(opts.Exclude) > 0 && MatchesAny(path, opts.Exclude) {
			continue
		}
		files = append(files, FileDiff{Path: path, Content: strings.TrimRight(section, "\n")})
	}
	return files
}

func rangeSpec(revRange string, mergeBase bool) string {
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		return strings.Replace(revRange, "..", "...", 1)
	}
	return revRange
}

func commitSubject(sha string) []string {
	out, err := gitOutput("log", "-1", "--format=%s", sha)
	if err != nil {
		return nil
	}
	subject := strings.TrimSpace(out)
	if subject == "" {
		return nil
	}
	return []string{subject}
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func buildResult(diff, mode, rangeStr string, titles []string, opts DiffOptions) DiffResult {
	meta, err := GetRepoMeta()
	if err != nil {
		meta = RepoMeta{}
	}
	// Include patterns were already passed to git as pathspecs.
	return DiffResult{
		Files:  Split(diff, DiffOptions{Exclude: opts.Exclude}),
		Titles: titles,
		Mode:   mode,
		Range:  rangeStr,
		Repo:   meta,
	}
}

func splitDiffSections(diff string) []string {
	var sections []string
	lines := strings.Split(diff, "\n")
	var current strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection returns the post-image path of a section. Deleted
// and binary files have no "+++ b/" line, so the header's b/ path is used.
func extractPathFromSection(section string) string {
	var header string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
		if header == "" && strings.HasPrefix(line, "diff --git ") {
			header = line
		}
	}
	if i := strings.LastIndex(header, " b/"); i >= 0 {
		return header[i+len(" b/"):]
	}
	return ""
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
		// "dir/**" matches everything below dir
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			prefix = strings.TrimPrefix(prefix, "**/")
			if strings.HasPrefix(path, prefix+"/") || strings.Contains(path, "/"+prefix+"/") {
				return true
			}
		}
	}
	return false
}

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// ListCommits returns commits in a revision range, oldest first.
// If mergeBase is true, ".." is converted to "..." for merge-base comparison.
func ListCommits(revRange string, mergeBase bool) ([]CommitInfo, error) {
	// Output format: "commit <sha>\n<subject>\n" per commit.
	out, err := gitOutput("rev-list", "--reverse", "--format=%s", rangeSpec(revRange, mergeBase))
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	lines := strings.Split(out, "\n")
	var commits []CommitInfo
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "commit ") {
			continue
		}
		sha := strings.TrimPrefix(line, "commit ")
		var subject string
		if i+1 < len(lines) {
			subject = strings.TrimSpace(lines[i+1])
			i++ // skip the subject line
		}
		commits = append(commits, CommitInfo{
			SHA:     sha,
			Subject: subject,
		})
	}
	return commits, nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
