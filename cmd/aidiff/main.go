package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aidiff/aidiff/internal/adapter/cli"
	"github.com/aidiff/aidiff/internal/adapter/git"
	githubadapter "github.com/aidiff/aidiff/internal/adapter/github"
	"github.com/aidiff/aidiff/internal/adapter/output/markdown"
	"github.com/aidiff/aidiff/internal/config"
	"github.com/aidiff/aidiff/internal/usecase/export"
	"github.com/aidiff/aidiff/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "aidiff",
		EnvPrefix:   "AIDIFF",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	writer := markdown.NewWriter(func() string {
		return time.Now().Format("2006-01-02 15:04:05")
	})

	makeExporter := func(repoDir, token string) cli.Exporter {
		client := githubadapter.NewClient(token)
		if cfg.API.BaseURL != "" {
			client.SetBaseURL(cfg.API.BaseURL)
		}
		return export.NewOrchestrator(export.OrchestratorDeps{
			Git:    git.NewEngine(repoDir),
			Remote: client,
			Writer: writer,
		})
	}

	root := cli.NewRootCommand(cli.Dependencies{
		MakeExporter:        makeExporter,
		DefaultRepo:         cfg.Git.RepositoryDir,
		DefaultOutput:       cfg.Output.Path,
		DefaultContextLines: cfg.Diff.ContextLines,
		DefaultWordDiff:     cfg.Diff.WordDiff,
		DefaultMaxLines:     cfg.Diff.MaxLines,
		Version:             version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return err
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aidiff"))
	}
	return paths
}

// Compile-time wiring checks.
var _ export.GitEngine = (*git.Engine)(nil)
var _ export.RemoteClient = (*githubadapter.Client)(nil)
var _ export.DocumentWriter = (*markdown.Writer)(nil)
