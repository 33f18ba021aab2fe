// Package target classifies the raw target argument into one of the
// supported diff source modes.
package target

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aidiff/aidiff/internal/domain"
)

// GitHubHost is the only forge host the tool accepts. Enterprise hosts
// are excluded by policy, not by accident.
const GitHubHost = "github.com"

var (
	pullURLRe   = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/pull/(\d+)(?:[/?#].*)?$`)
	commitURLRe = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/commit/([0-9a-fA-F]{7,40})(?:[/?#].*)?$`)
)

// Classify maps a raw target string to a diff source descriptor.
// Recognition order: PR URL, commit URL, WORKTREE, UNSTAGED, three-dot
// range, two-dot range, commit-ish fallback. URLs pointing at any host
// other than github.com are rejected rather than misclassified.
func Classify(raw string) (domain.Target, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Target{}, fmt.Errorf("empty target")
	}

	if m := pullURLRe.FindStringSubmatch(raw); m != nil {
		number, err := strconv.Atoi(m[3])
		if err != nil {
			return domain.Target{}, fmt.Errorf("invalid pull request number in %q: %w", raw, err)
		}
		return domain.Target{
			Raw:    raw,
			Mode:   domain.ModePR,
			Owner:  m[1],
			Repo:   trimRepoName(m[2]),
			Number: number,
		}, nil
	}

	if m := commitURLRe.FindStringSubmatch(raw); m != nil {
		return domain.Target{
			Raw:   raw,
			Mode:  domain.ModeCommitURL,
			Owner: m[1],
			Repo:  trimRepoName(m[2]),
			SHA:   m[3],
		}, nil
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return domain.Target{}, fmt.Errorf("parse target URL %q: %w", raw, err)
		}
		if u.Hostname() != GitHubHost {
			return domain.Target{}, fmt.Errorf("unsupported host %q in target %q: only %s URLs are supported", u.Hostname(), raw, GitHubHost)
		}
		return domain.Target{}, fmt.Errorf("unrecognized %s URL %q: expected a pull request or commit URL", GitHubHost, raw)
	}

	switch raw {
	case "WORKTREE":
		return domain.Target{Raw: raw, Mode: domain.ModeWorktree}, nil
	case "UNSTAGED":
		return domain.Target{Raw: raw, Mode: domain.ModeUnstaged}, nil
	}

	// Three-dot before two-dot: "a...b" contains both separators.
	if i := strings.Index(raw, "..."); i >= 0 {
		return domain.Target{
			Raw:  raw,
			Mode: domain.ModeRangeThreeDot,
			Base: raw[:i],
			Head: raw[i+3:],
		}, nil
	}
	if i := strings.Index(raw, ".."); i >= 0 {
		return domain.Target{
			Raw:  raw,
			Mode: domain.ModeRangeTwoDot,
			Base: raw[:i],
			Head: raw[i+2:],
		}, nil
	}

	return domain.Target{Raw: raw, Mode: domain.ModeCommitIsh, Ref: raw}, nil
}

func trimRepoName(repo string) string {
	return strings.TrimSuffix(repo, ".git")
}
