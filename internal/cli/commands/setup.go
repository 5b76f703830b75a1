package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/sqlwhat/internal/cli/config"
	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/leapstack-labs/sqlwhat/pkg/dispatch"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Dispatcher returns a dispatcher for the configured grammar.
func (c *CommandContext) Dispatcher() (*dispatch.Dispatcher, error) {
	return dispatch.ForGrammar(c.Cfg.Grammar, dispatch.WithLogger(c.Logger))
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// source is one SQL input.
type source struct {
	Name string
	Path string
	Text string
}

const (
	exprSource  = "<expr>"
	stdinSource = "<stdin>"
)

// readSources collects the inline expression, the named files, or standard
// input when neither is given.
func readSources(cmd *cobra.Command, expr string, files []string) ([]source, error) {
	var sources []source
	if expr != "" {
		sources = append(sources, source{Name: exprSource, Text: expr})
	}
	fromFiles, err := readFiles(files)
	if err != nil {
		return nil, err
	}
	sources = append(sources, fromFiles...)
	if len(sources) > 0 {
		return sources, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("no SQL given\nHint: pass files, pipe SQL on stdin, or use -e")
	}
	return []source{{Name: stdinSource, Text: string(data)}}, nil
}

func readFiles(files []string) ([]source, error) {
	sources := make([]source, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, source{Name: path, Path: path, Text: string(data)})
	}
	return sources, nil
}
