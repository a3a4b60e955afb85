package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"
	ModeAudit  = "audit"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the audit server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	MARDirectory    string
	OutputDirectory string
	MaxFileSize     int64 // Maximum document file size in bytes

	// Audit configuration
	Workers   int    // page pool size; 0 picks a CPU-based default
	AuditFile string // chart to audit in one-shot audit mode
	AuditDate string // MM-DD-YYYY audit date in one-shot audit mode

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		MARDirectory:    currentDir,
		OutputDirectory: filepath.Join(currentDir, "reports"),
		Version:         "1.0.0",
		ServerName:      "maraudit",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
		Workers:         0,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.MARDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.MARDirectory); err == nil {
			cfg.MARDirectory = expandedPath
		}
	}
	if cfg.OutputDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
			cfg.OutputDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("MARAUDIT")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.MARDirectory)
	viper.SetDefault("out", cfg.OutputDirectory)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("file", cfg.AuditFile)
	viper.SetDefault("date", cfg.AuditDate)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode,
		"Run mode: 'stdio' for MCP standard I/O, 'server' for HTTP server, 'audit' for a one-shot audit")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.MARDirectory, "Directory containing MAR documents")
	pflag.String("out", cfg.OutputDirectory, "Directory for checklist and JSON exports")
	pflag.Int("workers", cfg.Workers, "Page worker pool size (0 = CPU count - 1)")
	pflag.String("file", cfg.AuditFile, "Chart PDF to audit (audit mode only)")
	pflag.String("date", cfg.AuditDate, "Audit date as MM-DD-YYYY (audit mode only)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("file", pflag.Lookup("file"))
	_ = viper.BindPFlag("date", pflag.Lookup("date"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nmaraudit - A hold-rule audit server for medication administration records\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/mars                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/mars       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=audit --file=mercer_09-2026.pdf --date=09-14-2026 "+
			"# one-shot audit\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_DIR         MAR document directory\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_OUT         Export directory\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_WORKERS     Page worker pool size\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_FILE        Chart to audit (audit mode)\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_DATE        Audit date (audit mode)\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  MARAUDIT_MAXFILESIZE Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.MARDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("out")
	cfg.Workers = viper.GetInt("workers")
	cfg.AuditFile = viper.GetString("file")
	cfg.AuditDate = viper.GetString("date")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeAudit {
		return errors.New("mode must be one of 'stdio', 'server', or 'audit'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// One-shot audit mode needs a chart and a date
	if c.Mode == ModeAudit {
		if c.AuditFile == "" {
			return errors.New("audit mode requires --file")
		}
		if c.AuditDate == "" {
			return errors.New("audit mode requires --date")
		}
	}

	// Validate MAR directory
	if c.MARDirectory == "" {
		return errors.New("MAR directory cannot be empty")
	}

	// Check if MAR directory exists, create if it doesn't
	if _, err := os.Stat(c.MARDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.MARDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create MAR directory %s: %w", c.MARDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access MAR directory %s: %w", c.MARDirectory, err)
	}

	// Validate worker count
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, MARDirectory: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.MARDirectory, c.Workers, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsAuditMode returns true for one-shot audit mode
func (c *Config) IsAuditMode() bool {
	return c.Mode == ModeAudit
}
