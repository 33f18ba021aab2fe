package domain

import "strings"

// Mode classifies what kind of diff source a target string denotes.
type Mode string

const (
	// ModePR is a GitHub pull request URL.
	ModePR Mode = "pull request"

	// ModeCommitURL is a GitHub commit URL.
	ModeCommitURL Mode = "remote commit"

	// ModeRangeTwoDot is a local two-dot range (base..head).
	ModeRangeTwoDot Mode = "range"

	// ModeRangeThreeDot is a local three-dot range (merge-base to head).
	ModeRangeThreeDot Mode = "merge-base range"

	// ModeCommitIsh is a single local ref diffed against its first parent.
	ModeCommitIsh Mode = "commit"

	// ModeWorktree is the full working tree (staged + unstaged) vs HEAD.
	ModeWorktree Mode = "worktree"

	// ModeUnstaged is the working tree vs the index.
	ModeUnstaged Mode = "unstaged"
)

// IsRemote reports whether the mode is served by the GitHub API rather
// than the local repository.
func (m Mode) IsRemote() bool {
	return m == ModePR || m == ModeCommitURL
}

// Target is the classified form of the raw target argument.
// Owner, Repo and Number/SHA are populated for remote modes;
// Base and Head for range modes; Ref for commit-ish.
type Target struct {
	Raw    string
	Mode   Mode
	Owner  string
	Repo   string
	Number int
	SHA    string
	Ref    string
	Base   string
	Head   string
}

// DiffOptions controls how local diffs are produced.
type DiffOptions struct {
	ContextLines int
	WordDiff     bool
}

// DiffSummary is a shortstat-style files/insertions/deletions count.
type DiffSummary struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}

// Commit is one entry of a commit list.
type Commit struct {
	SHA      string
	ShortSHA string
	Author   string
	Date     string
	Message  string
}

// DiffResult is the normalized bundle produced by a diff provider.
// It is created once per run and never mutated afterwards.
type DiffResult struct {
	Title    string
	DiffText string
	Summary  DiffSummary
	Commits  []Commit
}

// Document carries everything the renderer needs to emit the Markdown
// artifact for a single run.
type Document struct {
	Title       string
	Mode        Mode
	Repository  string
	TargetLabel string
	GeneratedAt string
	Summary     DiffSummary
	Commits     []Commit
	DiffText    string
	PRNumber    int
	ShortSHA    string
}

// RenderOptions controls rendering and output placement.
type RenderOptions struct {
	IncludePrompt bool
	MaxLines      int
	OutputPath    string
}

// FirstLine returns the subject line of a possibly multi-line commit
// message.
func FirstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
