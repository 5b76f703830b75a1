// Package config provides configuration management for the sqlwhat CLI.
//
// Values are layered, lowest to highest: built-in defaults, sqlwhat.yaml,
// SQLWHAT_* environment variables, and explicitly set command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Grammar      string `koanf:"grammar"`
	Start        string `koanf:"start"`
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`

	// UnknownKeys lists loaded keys that match no field.
	UnknownKeys []string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultGrammar  = "postgres"
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel = "warn"
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"sqlwhat.yaml", "sqlwhat.yml"}

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json", "yaml"}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Grammar:      DefaultGrammar,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
	}
}
