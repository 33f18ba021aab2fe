// Package export implements the core pipeline: a classified target goes
// through exactly one fetch strategy, the result is rendered to Markdown
// and written to a single output file.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/aidiff/aidiff/internal/domain"
)

// GitEngine abstracts the local repository collaborator.
type GitEngine interface {
	// RepositoryName returns a short display name for the repository.
	RepositoryName() string

	// Resolve maps a commit-ish to its full hash.
	Resolve(ctx context.Context, ref string) (string, error)

	// FirstParent returns the hash of the first parent of the given ref.
	FirstParent(ctx context.Context, ref string) (string, error)

	// DiffRefs diffs base against head directly.
	DiffRefs(ctx context.Context, base, head string, opts domain.DiffOptions) (string, error)

	// DiffRange passes a range expression (two-dot or three-dot) to the
	// version-control tool verbatim.
	DiffRange(ctx context.Context, rng string, opts domain.DiffOptions) (string, error)

	// WorktreeDiff diffs HEAD against the full working tree.
	WorktreeDiff(ctx context.Context, opts domain.DiffOptions) (string, error)

	// UnstagedDiff diffs the index against the working tree.
	UnstagedDiff(ctx context.Context, opts domain.DiffOptions) (string, error)

	// Shortstat returns summary counts for the given diff arguments.
	Shortstat(ctx context.Context, args ...string) (domain.DiffSummary, error)

	// Commits lists the commits covered by a range or single ref.
	Commits(ctx context.Context, rangeOrRef string) ([]domain.Commit, error)
}

// RemoteClient abstracts the GitHub API collaborator.
type RemoteClient interface {
	FetchPullRequest(ctx context.Context, owner, repo string, number int) (domain.DiffResult, error)
	FetchCommit(ctx context.Context, owner, repo, sha string) (domain.DiffResult, error)
}

// DocumentWriter renders a document and persists it, returning the
// written path.
type DocumentWriter interface {
	Write(doc domain.Document, opts domain.RenderOptions) (string, error)
}

// OrchestratorDeps captures the outbound dependencies for the exporter.
type OrchestratorDeps struct {
	Git    GitEngine
	Remote RemoteClient
	Writer DocumentWriter
}

// Request represents one inbound CLI invocation.
type Request struct {
	Target        domain.Target
	ContextLines  int
	WordDiff      bool
	MaxLines      int
	OutputPath    string
	IncludePrompt bool
}

// Result captures the exporter outcome.
type Result struct {
	OutputPath string
	Mode       domain.Mode
}

// Orchestrator runs the fetch-render-write pipeline for one target.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator wires the exporter dependencies.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) validateDependencies(target domain.Target) error {
	if o.deps.Writer == nil {
		return errors.New("document writer is required")
	}
	if target.Mode.IsRemote() {
		if o.deps.Remote == nil {
			return errors.New("remote client is required")
		}
		return nil
	}
	if o.deps.Git == nil {
		return errors.New("git engine is required")
	}
	return nil
}

// Export produces the Markdown document for the request's target.
func (o *Orchestrator) Export(ctx context.Context, req Request) (Result, error) {
	if err := o.validateDependencies(req.Target); err != nil {
		return Result{}, err
	}

	doc, err := o.buildDocument(ctx, req)
	if err != nil {
		return Result{}, err
	}

	path, err := o.deps.Writer.Write(doc, domain.RenderOptions{
		IncludePrompt: req.IncludePrompt,
		MaxLines:      req.MaxLines,
		OutputPath:    req.OutputPath,
	})
	if err != nil {
		return Result{}, fmt.Errorf("write output: %w", err)
	}

	return Result{OutputPath: path, Mode: req.Target.Mode}, nil
}

func (o *Orchestrator) buildDocument(ctx context.Context, req Request) (domain.Document, error) {
	target := req.Target
	opts := domain.DiffOptions{ContextLines: req.ContextLines, WordDiff: req.WordDiff}

	switch target.Mode {
	case domain.ModePR:
		res, err := o.deps.Remote.FetchPullRequest(ctx, target.Owner, target.Repo, target.Number)
		if err != nil {
			return domain.Document{}, err
		}
		doc := o.remoteDocument(target, res)
		doc.PRNumber = target.Number
		return doc, nil

	case domain.ModeCommitURL:
		res, err := o.deps.Remote.FetchCommit(ctx, target.Owner, target.Repo, target.SHA)
		if err != nil {
			return domain.Document{}, err
		}
		doc := o.remoteDocument(target, res)
		doc.ShortSHA = shortSHA(target.SHA)
		return doc, nil

	case domain.ModeCommitIsh:
		return o.commitDocument(ctx, target, opts)

	case domain.ModeRangeTwoDot:
		rng := target.Base + ".." + target.Head
		return o.rangeDocument(ctx, target, rng, func() (string, error) {
			return o.deps.Git.DiffRefs(ctx, target.Base, target.Head, opts)
		})

	case domain.ModeRangeThreeDot:
		// Merge-base semantics, including unrelated-history failures,
		// belong to git; the range expression is passed through as-is.
		return o.rangeDocument(ctx, target, target.Raw, func() (string, error) {
			return o.deps.Git.DiffRange(ctx, target.Raw, opts)
		})

	case domain.ModeWorktree:
		return o.worktreeDocument(ctx, target, opts)

	case domain.ModeUnstaged:
		return o.unstagedDocument(ctx, target, opts)

	default:
		return domain.Document{}, fmt.Errorf("unhandled target mode %q", target.Mode)
	}
}

func (o *Orchestrator) remoteDocument(target domain.Target, res domain.DiffResult) domain.Document {
	return domain.Document{
		Title:       res.Title,
		Mode:        target.Mode,
		Repository:  target.Owner + "/" + target.Repo,
		TargetLabel: target.Raw,
		Summary:     res.Summary,
		Commits:     res.Commits,
		DiffText:    res.DiffText,
	}
}

func (o *Orchestrator) commitDocument(ctx context.Context, target domain.Target, opts domain.DiffOptions) (domain.Document, error) {
	sha, err := o.deps.Git.Resolve(ctx, target.Ref)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}
	parent, err := o.deps.Git.FirstParent(ctx, target.Ref)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}

	diff, err := o.deps.Git.DiffRefs(ctx, parent, sha, opts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}
	summary, err := o.deps.Git.Shortstat(ctx, "--find-renames", parent, sha)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}

	short := shortSHA(sha)
	title := "Commit " + short
	commits := o.listCommits(ctx, sha)
	if len(commits) > 0 {
		title = fmt.Sprintf("Commit %s — %s", short, domain.FirstLine(commits[0].Message))
	}

	return domain.Document{
		Title:       title,
		Mode:        target.Mode,
		Repository:  o.deps.Git.RepositoryName(),
		TargetLabel: target.Raw,
		Summary:     summary,
		Commits:     commits,
		DiffText:    diff,
		ShortSHA:    short,
	}, nil
}

func (o *Orchestrator) rangeDocument(ctx context.Context, target domain.Target, rng string, diffFn func() (string, error)) (domain.Document, error) {
	diff, err := diffFn()
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}
	summary, err := o.deps.Git.Shortstat(ctx, "--find-renames", rng)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}

	return domain.Document{
		Title:       "Range " + rng,
		Mode:        target.Mode,
		Repository:  o.deps.Git.RepositoryName(),
		TargetLabel: rng,
		Summary:     summary,
		Commits:     o.listCommits(ctx, rng),
		DiffText:    diff,
	}, nil
}

func (o *Orchestrator) worktreeDocument(ctx context.Context, target domain.Target, opts domain.DiffOptions) (domain.Document, error) {
	diff, err := o.deps.Git.WorktreeDiff(ctx, opts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}
	summary, err := o.deps.Git.Shortstat(ctx, "--find-renames", "HEAD")
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}

	return domain.Document{
		Title:       "Working tree vs HEAD",
		Mode:        target.Mode,
		Repository:  o.deps.Git.RepositoryName(),
		TargetLabel: "WORKTREE",
		Summary:     summary,
		DiffText:    diff,
	}, nil
}

func (o *Orchestrator) unstagedDocument(ctx context.Context, target domain.Target, opts domain.DiffOptions) (domain.Document, error) {
	diff, err := o.deps.Git.UnstagedDiff(ctx, opts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}
	summary, err := o.deps.Git.Shortstat(ctx, "--find-renames")
	if err != nil {
		return domain.Document{}, fmt.Errorf("target %s: %w", target.Raw, err)
	}

	return domain.Document{
		Title:       "Unstaged changes (working tree vs index)",
		Mode:        target.Mode,
		Repository:  o.deps.Git.RepositoryName(),
		TargetLabel: "UNSTAGED",
		Summary:     summary,
		DiffText:    diff,
	}, nil
}

// listCommits tolerates commit-list failures: the diff is the payload
// that matters, so a bad log invocation degrades to an empty section.
func (o *Orchestrator) listCommits(ctx context.Context, rangeOrRef string) []domain.Commit {
	commits, err := o.deps.Git.Commits(ctx, rangeOrRef)
	if err != nil {
		log.Debug().Err(err).Str("range", rangeOrRef).Msg("commit listing failed")
		return nil
	}
	return commits
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
