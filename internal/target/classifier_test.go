package target_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidiff/aidiff/internal/domain"
	"github.com/aidiff/aidiff/internal/target"
)

func TestClassifyPullRequestURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		owner  string
		repo   string
		number int
	}{
		{"https", "https://github.com/acme/widgets/pull/42", "acme", "widgets", 42},
		{"http", "http://github.com/octo/cat/pull/1", "octo", "cat", 1},
		{"trailing path", "https://github.com/acme/widgets/pull/42/files", "acme", "widgets", 42},
		{"dot-git repo", "https://github.com/acme/widgets.git/pull/7", "acme", "widgets", 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := target.Classify(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, domain.ModePR, got.Mode)
			assert.Equal(t, tc.owner, got.Owner)
			assert.Equal(t, tc.repo, got.Repo)
			assert.Equal(t, tc.number, got.Number)
		})
	}
}

func TestClassifyCommitURL(t *testing.T) {
	got, err := target.Classify("https://github.com/acme/widgets/commit/abc1234")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCommitURL, got.Mode)
	assert.Equal(t, "acme", got.Owner)
	assert.Equal(t, "widgets", got.Repo)
	assert.Equal(t, "abc1234", got.SHA)
}

func TestClassifyCommitURLRequiresHexSHA(t *testing.T) {
	_, err := target.Classify("https://github.com/acme/widgets/commit/not-a-sha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized")
}

func TestClassifyRejectsUnsupportedHost(t *testing.T) {
	tests := []string{
		"https://github.enterprise.com/acme/widgets/pull/1",
		"https://gitlab.com/acme/widgets/-/merge_requests/9",
		"http://example.com/acme/widgets/pull/3",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := target.Classify(raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported host")
		})
	}
}

func TestClassifyLiterals(t *testing.T) {
	got, err := target.Classify("WORKTREE")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWorktree, got.Mode)

	got, err = target.Classify("UNSTAGED")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeUnstaged, got.Mode)
}

func TestClassifyRanges(t *testing.T) {
	got, err := target.Classify("main...feature")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRangeThreeDot, got.Mode)
	assert.Equal(t, "main", got.Base)
	assert.Equal(t, "feature", got.Head)

	got, err = target.Classify("v1.0..v2.0")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRangeTwoDot, got.Mode)
	assert.Equal(t, "v1.0", got.Base)
	assert.Equal(t, "v2.0", got.Head)
}

func TestClassifyThreeDotSplitsAtFirstOccurrence(t *testing.T) {
	got, err := target.Classify("a...b...c")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRangeThreeDot, got.Mode)
	assert.Equal(t, "a", got.Base)
	assert.Equal(t, "b...c", got.Head)
}

func TestClassifyFallbackIsCommitIsh(t *testing.T) {
	tests := []string{"abc1234", "HEAD~2", "feature/login", "v1.2.3"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			got, err := target.Classify(raw)
			require.NoError(t, err)
			assert.Equal(t, domain.ModeCommitIsh, got.Mode)
			assert.Equal(t, raw, got.Ref)
		})
	}
}

func TestClassifyEmptyTarget(t *testing.T) {
	_, err := target.Classify("")
	require.Error(t, err)
}
