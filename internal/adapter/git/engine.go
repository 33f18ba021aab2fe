// Package git is the local diff provider. Revision resolution goes
// through go-git; the diffs themselves shell out to the git binary,
// which owns rename detection, context sizing, word-diff and shortstat.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog/log"

	"github.com/aidiff/aidiff/internal/domain"
)

// Engine produces diffs, summaries, and commit lists from a local
// repository.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	if repoDir == "" {
		repoDir = "."
	}
	return &Engine{repoDir: repoDir}
}

// RepositoryName returns the basename of the repository toplevel, or of
// the configured directory when the toplevel cannot be determined.
func (e *Engine) RepositoryName() string {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if wt, wtErr := repo.Worktree(); wtErr == nil {
			return filepath.Base(wt.Filesystem.Root())
		}
	}
	abs, err := filepath.Abs(e.repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

// Resolve maps a commit-ish to its full hash.
func (e *Engine) Resolve(ctx context.Context, ref string) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo %s: %w", e.repoDir, err)
	}
	hash, err := resolveRevision(repo, ref)
	if err != nil {
		return "", fmt.Errorf("resolve ref %s: %w", ref, err)
	}
	return hash.String(), nil
}

// FirstParent returns the hash of the first parent of the given ref.
func (e *Engine) FirstParent(ctx context.Context, ref string) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo %s: %w", e.repoDir, err)
	}
	hash, err := resolveRevision(repo, ref)
	if err != nil {
		return "", fmt.Errorf("resolve ref %s: %w", ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("load commit %s: %w", hash, err)
	}
	if commit.NumParents() == 0 {
		return "", fmt.Errorf("commit %s has no parent", ref)
	}
	return commit.ParentHashes[0].String(), nil
}

// DiffRefs diffs base against head directly.
func (e *Engine) DiffRefs(ctx context.Context, base, head string, opts domain.DiffOptions) (string, error) {
	args := append(diffArgs(opts), base, head)
	out, err := e.runGit(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("diff %s %s: %w", base, head, err)
	}
	return out, nil
}

// DiffRange passes a range expression to git verbatim, so three-dot
// merge-base semantics (including unrelated-history errors) are git's
// own.
func (e *Engine) DiffRange(ctx context.Context, rng string, opts domain.DiffOptions) (string, error) {
	args := append(diffArgs(opts), rng)
	out, err := e.runGit(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", rng, err)
	}
	return out, nil
}

// WorktreeDiff diffs HEAD against the full working tree, staged and
// unstaged changes included.
func (e *Engine) WorktreeDiff(ctx context.Context, opts domain.DiffOptions) (string, error) {
	args := append(diffArgs(opts), "HEAD")
	out, err := e.runGit(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("diff worktree: %w", err)
	}
	return out, nil
}

// UnstagedDiff diffs the index against the working tree only.
func (e *Engine) UnstagedDiff(ctx context.Context, opts domain.DiffOptions) (string, error) {
	out, err := e.runGit(ctx, diffArgs(opts)...)
	if err != nil {
		return "", fmt.Errorf("diff unstaged: %w", err)
	}
	return out, nil
}

// Shortstat runs git diff --shortstat with the given trailing arguments
// and parses the counts. Empty output yields a zero summary.
func (e *Engine) Shortstat(ctx context.Context, args ...string) (domain.DiffSummary, error) {
	full := append([]string{"diff", "--shortstat"}, args...)
	out, err := e.runGit(ctx, full...)
	if err != nil {
		return domain.DiffSummary{}, fmt.Errorf("shortstat %v: %w", args, err)
	}
	return ParseShortstat(out), nil
}

// Commits lists the commits covered by a range, or the single commit
// for a plain ref, newest first. Merge commits are skipped for ranges.
func (e *Engine) Commits(ctx context.Context, rangeOrRef string) ([]domain.Commit, error) {
	const format = "--pretty=format:%H%x09%h%x09%ad%x09%an%x09%s"

	var out string
	var err error
	if strings.Contains(rangeOrRef, "..") {
		out, err = e.runGit(ctx, "log", "--no-merges", "--date=short", format, rangeOrRef)
	} else {
		out, err = e.runGit(ctx, "show", "--no-patch", "--date=short", format, rangeOrRef)
	}
	if err != nil {
		return nil, fmt.Errorf("list commits %s: %w", rangeOrRef, err)
	}
	return parseCommitLines(out), nil
}

func diffArgs(opts domain.DiffOptions) []string {
	context := opts.ContextLines
	if context < 0 {
		context = 0
	}
	args := []string{"diff", fmt.Sprintf("-U%d", context), "--find-renames"}
	if opts.WordDiff {
		args = append(args, "--word-diff=plain")
	}
	return args
}

var shortstatRe = regexp.MustCompile(`(\d+) files? changed(?:, (\d+) insertions?\(\+\))?(?:, (\d+) deletions?\(-\))?`)

// ParseShortstat converts git's shortstat line into counts. Unmatched
// input (including empty diffs) yields a zero summary.
func ParseShortstat(out string) domain.DiffSummary {
	m := shortstatRe.FindStringSubmatch(strings.TrimSpace(out))
	if m == nil {
		return domain.DiffSummary{}
	}
	return domain.DiffSummary{
		FilesChanged: atoi(m[1]),
		Insertions:   atoi(m[2]),
		Deletions:    atoi(m[3]),
	}
}

func parseCommitLines(out string) []domain.Commit {
	var commits []domain.Commit
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(strings.TrimRight(line, "\r"), "\t", 5)
		if len(fields) < 5 || fields[0] == "" {
			continue
		}
		commits = append(commits, domain.Commit{
			SHA:      fields[0],
			ShortSHA: fields[1],
			Date:     fields[2],
			Author:   fields[3],
			Message:  fields[4],
		})
	}
	return commits
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func resolveRevision(repo *goGit.Repository, ref string) (*plumbing.Hash, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return hash, nil
	}
	return nil, lastErr
}

func (e *Engine) runGit(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{
		"-C", e.repoDir,
		"-c", "core.quotepath=false",
		"-c", "color.ui=never",
	}, args...)
	log.Debug().Strs("args", args).Str("repo", e.repoDir).Msg("running git")

	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}
