package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aidiff/aidiff/internal/config"
	"github.com/aidiff/aidiff/internal/target"
	"github.com/aidiff/aidiff/internal/usecase/export"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Exporter defines the dependency required to run an export.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (export.Result, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI. MakeExporter is
// a factory because the repository directory and token are only known
// after flag parsing.
type Dependencies struct {
	MakeExporter func(repoDir, token string) Exporter
	Args         Arguments

	DefaultRepo         string
	DefaultOutput       string
	DefaultContextLines int
	DefaultWordDiff     bool
	DefaultMaxLines     int
	Version             string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	var repoDir string
	var outputPath string
	var contextLines int
	var wordDiff bool
	var maxLines int
	var token string
	var noPrompt bool
	var verbose bool
	var showVersion bool

	root := &cobra.Command{
		Use:   "aidiff [target]",
		Short: "Export a diff as a Markdown document for AI code review",
		Long: `aidiff turns a diff source into a single Markdown file ready to paste
into an AI assistant. The target may be a GitHub pull request URL, a
GitHub commit URL, a local commit-ish, a commit range (base..head or
base...head), or the literals WORKTREE and UNSTAGED.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("a target is required; pass a PR URL, commit, range, WORKTREE or UNSTAGED")
			}

			classified, err := target.Classify(args[0])
			if err != nil {
				return err
			}

			exporter := deps.MakeExporter(repoDir, config.ResolveToken(token))
			res, err := exporter.Export(cmd.Context(), export.Request{
				Target:        classified,
				ContextLines:  contextLines,
				WordDiff:      wordDiff,
				MaxLines:      maxLines,
				OutputPath:    outputPath,
				IncludePrompt: !noPrompt,
			})
			if err != nil {
				return err
			}

			if isTerminal(os.Stdout) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", res.OutputPath)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", res.OutputPath)
			}
			return nil
		},
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.Flags().StringVarP(&repoDir, "repo", "r", deps.DefaultRepo, "Path to the local repository")
	root.Flags().StringVarP(&outputPath, "output", "o", deps.DefaultOutput, "Output file path (defaults per target)")
	root.Flags().IntVarP(&contextLines, "context", "c", deps.DefaultContextLines, "Context lines per diff hunk")
	root.Flags().BoolVarP(&wordDiff, "word-diff", "w", deps.DefaultWordDiff, "Use word-level diff for local targets")
	root.Flags().IntVar(&maxLines, "max-lines", deps.DefaultMaxLines, "Truncate the diff section after this many lines")
	root.Flags().StringVar(&token, "token", "", "GitHub token (falls back to GITHUB_TOKEN, then GH_TOKEN)")
	root.Flags().BoolVar(&noPrompt, "no-prompt", false, "Omit the trailing review prompt section")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}

	return root
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
