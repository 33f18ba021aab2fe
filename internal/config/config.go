package config

import "os"

// Config is the merged application configuration.
type Config struct {
	Git    GitConfig    `mapstructure:"git"`
	Diff   DiffConfig   `mapstructure:"diff"`
	Output OutputConfig `mapstructure:"output"`
	API    APIConfig    `mapstructure:"api"`
}

// GitConfig controls how the local repository is located.
type GitConfig struct {
	RepositoryDir string `mapstructure:"repositoryDir"`
}

// DiffConfig controls how diffs are produced and rendered.
type DiffConfig struct {
	ContextLines int  `mapstructure:"contextLines"`
	WordDiff     bool `mapstructure:"wordDiff"`
	MaxLines     int  `mapstructure:"maxLines"`
}

// OutputConfig controls where the rendered document is written.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// APIConfig controls how the GitHub REST API is reached.
type APIConfig struct {
	BaseURL string `mapstructure:"baseURL"`
}

// ResolveToken picks the GitHub token to use for remote targets. An
// explicitly supplied token wins, then GITHUB_TOKEN, then GH_TOKEN.
// The empty string means unauthenticated requests.
func ResolveToken(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return os.Getenv("GH_TOKEN")
}
