package git_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/aidiff/aidiff/internal/adapter/git"
	"github.com/aidiff/aidiff/internal/domain"
)

func TestEngineDiffRefsAgainstFirstParent(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n")
	commitAll(t, worktree, "initial")

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"changed\")\n}\n")
	second := commitAll(t, worktree, "change greeting")

	engine := git.NewEngine(tmp)

	parent, err := engine.FirstParent(ctx, second)
	if err != nil {
		t.Fatalf("FirstParent returned error: %v", err)
	}

	diff, err := engine.DiffRefs(ctx, parent, second, domain.DiffOptions{ContextLines: 3})
	if err != nil {
		t.Fatalf("DiffRefs returned error: %v", err)
	}
	if !strings.Contains(diff, "-\tprintln(\"hello\")") || !strings.Contains(diff, "+\tprintln(\"changed\")") {
		t.Fatalf("diff missing expected hunks:\n%s", diff)
	}
}

func TestEngineFirstParentOfRootCommitFails(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	root := commitAll(t, worktree, "root")

	engine := git.NewEngine(tmp)
	if _, err := engine.FirstParent(ctx, root); err == nil {
		t.Fatal("expected error for root commit without parent")
	}
}

func TestEngineWorktreeAndUnstagedDiff(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	commitAll(t, worktree, "initial")

	writeFile(t, tmp, "a.txt", "one\ntwo\n")

	engine := git.NewEngine(tmp)

	wt, err := engine.WorktreeDiff(ctx, domain.DiffOptions{ContextLines: 3})
	if err != nil {
		t.Fatalf("WorktreeDiff returned error: %v", err)
	}
	if !strings.Contains(wt, "+two") {
		t.Fatalf("worktree diff missing addition:\n%s", wt)
	}

	unstaged, err := engine.UnstagedDiff(ctx, domain.DiffOptions{ContextLines: 3})
	if err != nil {
		t.Fatalf("UnstagedDiff returned error: %v", err)
	}
	if !strings.Contains(unstaged, "+two") {
		t.Fatalf("unstaged diff missing addition:\n%s", unstaged)
	}
}

func TestEngineShortstatCountsChanges(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	first := commitAll(t, worktree, "initial")

	writeFile(t, tmp, "a.txt", "one\ntwo\nthree\n")
	second := commitAll(t, worktree, "grow file")

	engine := git.NewEngine(tmp)
	summary, err := engine.Shortstat(ctx, first, second)
	if err != nil {
		t.Fatalf("Shortstat returned error: %v", err)
	}
	if summary.FilesChanged != 1 || summary.Insertions != 2 || summary.Deletions != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestEngineCommitsForRangeAndSingleRef(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	first := commitAll(t, worktree, "initial")
	writeFile(t, tmp, "a.txt", "one\ntwo\n")
	second := commitAll(t, worktree, "add second line")

	engine := git.NewEngine(tmp)

	commits, err := engine.Commits(ctx, first+".."+second)
	if err != nil {
		t.Fatalf("Commits returned error: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit in range, got %d", len(commits))
	}
	if commits[0].Message != "add second line" {
		t.Fatalf("unexpected subject: %q", commits[0].Message)
	}
	if commits[0].ShortSHA == "" || commits[0].Author != "Test User" {
		t.Fatalf("commit metadata incomplete: %+v", commits[0])
	}

	single, err := engine.Commits(ctx, second)
	if err != nil {
		t.Fatalf("Commits for single ref returned error: %v", err)
	}
	if len(single) != 1 || single[0].SHA != second {
		t.Fatalf("unexpected single-ref commit list: %+v", single)
	}
}

func TestEngineDiffRefsUnknownRefFails(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	commitAll(t, worktree, "initial")

	engine := git.NewEngine(tmp)
	if _, err := engine.DiffRefs(ctx, "nonexistent", "HEAD", domain.DiffOptions{ContextLines: 3}); err == nil {
		t.Fatal("expected error for unknown ref")
	}
}

func TestParseShortstat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.DiffSummary
	}{
		{"full", " 3 files changed, 10 insertions(+), 2 deletions(-)", domain.DiffSummary{FilesChanged: 3, Insertions: 10, Deletions: 2}},
		{"singular", " 1 file changed, 1 insertion(+), 1 deletion(-)", domain.DiffSummary{FilesChanged: 1, Insertions: 1, Deletions: 1}},
		{"insertions only", " 2 files changed, 4 insertions(+)", domain.DiffSummary{FilesChanged: 2, Insertions: 4}},
		{"deletions only", " 1 file changed, 5 deletions(-)", domain.DiffSummary{FilesChanged: 1, Deletions: 5}},
		{"empty", "", domain.DiffSummary{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := git.ParseShortstat(tc.in); got != tc.want {
				t.Fatalf("ParseShortstat(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEngineRepositoryName(t *testing.T) {
	tmp := t.TempDir()
	worktree := initRepo(t, tmp)
	writeFile(t, tmp, "a.txt", "one\n")
	commitAll(t, worktree, "initial")

	engine := git.NewEngine(tmp)
	if got := engine.RepositoryName(); got != filepath.Base(tmp) {
		t.Fatalf("RepositoryName = %q, want %q", got, filepath.Base(tmp))
	}
}

func initRepo(t *testing.T, dir string) *goGit.Worktree {
	t.Helper()
	repo, err := goGit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	return worktree
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func commitAll(t *testing.T, worktree *goGit.Worktree, message string) string {
	t.Helper()
	if err := worktree.AddGlob("."); err != nil {
		t.Fatalf("add error: %v", err)
	}
	hash, err := worktree.Commit(message, &goGit.CommitOptions{Author: defaultSignature()})
	if err != nil {
		t.Fatalf("commit error: %v", err)
	}
	return hash.String()
}

func defaultSignature() *object.Signature {
	return &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
