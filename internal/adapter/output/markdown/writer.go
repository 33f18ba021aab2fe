// Package markdown renders the review document and writes it to disk.
package markdown

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aidiff/aidiff/internal/domain"
)

type clock func() string

// Writer renders diff documents into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write renders the document and writes it to the resolved output path,
// overwriting any existing file. Returns the path written.
func (w *Writer) Write(doc domain.Document, opts domain.RenderOptions) (string, error) {
	path := opts.OutputPath
	if path == "" {
		path = DefaultFilename(doc)
	}

	content := w.Render(doc, opts)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown %s: %w", path, err)
	}
	return path, nil
}

// Render assembles the full Markdown text for the document.
func (w *Writer) Render(doc domain.Document, opts domain.RenderOptions) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString(fmt.Sprintf("# AI Code Review: %s\n\n", doc.Title))
	builder.WriteString(fmt.Sprintf("**Repo:** %s\n", doc.Repository))
	builder.WriteString(fmt.Sprintf("**Target:** %s\n", doc.TargetLabel))
	builder.WriteString(fmt.Sprintf("**Mode:** %s\n", caser.String(string(doc.Mode))))
	builder.WriteString(fmt.Sprintf("**Generated:** %s\n", w.now()))

	if len(doc.Commits) > 0 {
		builder.WriteString("\n## Commits\n\n")
		for _, c := range doc.Commits {
			builder.WriteString(fmt.Sprintf("- %s %s %s — %s\n", c.ShortSHA, c.Date, c.Author, c.Message))
		}
	}

	builder.WriteString("\n## Summary of Changes\n\n")
	builder.WriteString(fmt.Sprintf("Files changed: %d, insertions: %d, deletions: %d\n",
		doc.Summary.FilesChanged, doc.Summary.Insertions, doc.Summary.Deletions))

	builder.WriteString("\n## Diffs\n\n")
	diffText, omitted := truncate(doc.DiffText, opts.MaxLines)
	writeDiffSections(&builder, diffText)
	if omitted > 0 {
		builder.WriteString(fmt.Sprintf("\n> Diff truncated: %d lines omitted. Review the remainder locally.\n", omitted))
	}

	if opts.IncludePrompt {
		builder.WriteString(promptSection)
	}

	return builder.String()
}

// DefaultFilename implements the output naming policy for documents
// written without an explicit path.
func DefaultFilename(doc domain.Document) string {
	switch doc.Mode {
	case domain.ModePR:
		return fmt.Sprintf("diff-pr-%d.md", doc.PRNumber)
	case domain.ModeCommitURL, domain.ModeCommitIsh:
		if doc.ShortSHA != "" {
			return fmt.Sprintf("diff-commit-%s.md", doc.ShortSHA)
		}
	}
	return "ai-review.md"
}

// truncate cuts the diff at maxLines and reports how many lines were
// dropped. A non-positive maxLines disables truncation.
func truncate(text string, maxLines int) (string, int) {
	trimmed := strings.TrimRight(text, "\n")
	if trimmed == "" {
		return "", 0
	}
	lines := strings.Split(trimmed, "\n")
	if maxLines <= 0 || len(lines) <= maxLines {
		return trimmed, 0
	}
	return strings.Join(lines[:maxLines], "\n"), len(lines) - maxLines
}

// writeDiffSections splits the unified diff into per-file fenced blocks
// keyed on "diff --git" headers. Diffs without such headers (word-diff
// output, preambles) fall back to a single fenced block.
func writeDiffSections(builder *strings.Builder, diffText string) {
	sections := splitDiffSections(diffText)
	if len(sections) == 0 {
		builder.WriteString("```diff\n")
		builder.WriteString(diffText)
		builder.WriteString("\n```\n")
		return
	}

	for i, section := range sections {
		if name := sectionFilename(section); name != "" {
			builder.WriteString(fmt.Sprintf("### %s\n\n", name))
		}
		builder.WriteString("```diff\n")
		builder.WriteString(strings.TrimRight(section, "\n"))
		builder.WriteString("\n```\n")
		if i < len(sections)-1 {
			builder.WriteString("\n")
		}
	}
}

func splitDiffSections(diffText string) []string {
	if !strings.Contains(diffText, "diff --git ") {
		return nil
	}

	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "diff --git ") && current.Len() > 0 {
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

// sectionFilename prefers the +++ path, then the --- path, then the
// diff --git header, skipping /dev/null for added/deleted files.
func sectionFilename(section string) string {
	lines := strings.Split(section, "\n")
	for _, prefix := range []string{"+++ ", "--- "} {
		for _, line := range lines {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			path := strings.TrimSpace(line[len(prefix):])
			if path != "/dev/null" {
				return stripPathPrefix(path)
			}
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				return stripPathPrefix(parts[3])
			}
		}
	}
	return ""
}

func stripPathPrefix(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

const promptSection = `
---

## Prompt

You are a senior code reviewer. Assess correctness, security, performance, and readability.
Flag risky patterns, missing tests, unclear names, and potential regressions; categorize each
issue as Critical, High, Medium, or Low and order them by priority.
Suggest concrete fixes and test cases, categorized and ordered the same way.
Give a 1-10 score for the overall quality of the change.
Summarize the changes in a few sentences.
Finally, suggest a few features that could be added to the code or the project.
`
