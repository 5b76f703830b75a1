package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
)

// Validate checks that the configured grammar is registered, that the start
// rule is one the grammar accepts, and that output and log level are known.
func (c *Config) Validate() error {
	var errs []error

	m, ok := grammar.Get(c.Grammar)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown grammar %q (available: %s)\nHint: set grammar in sqlwhat.yaml or use --grammar",
			c.Grammar, strings.Join(grammar.List(), ", ")))
	} else if sr, ok := m.(grammar.StartRuler); ok && c.Start != "" {
		if rules := sr.StartRules(); !slices.Contains(rules, c.Start) {
			errs = append(errs, fmt.Errorf("grammar %s has no start rule %q (available: %s)",
				c.Grammar, c.Start, strings.Join(rules, ", ")))
		}
	}

	if !slices.Contains(OutputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("unknown output format %q (available: %s)",
			c.OutputFormat, strings.Join(OutputFormats, ", ")))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
