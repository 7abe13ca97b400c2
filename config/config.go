// Package config resolves dtrader settings from, in increasing priority,
// built-in defaults, a properties file, the environment and command-line
// flags.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
	"github.com/magiconair/properties"
)

const (
	DefaultPropertiesPath = "dtrader.properties"
	DefaultAddr           = ":8091"
)

// Property keys read from the properties file.
const (
	KeyLogLevel    = "dtrader.log.level"
	KeyLogFile     = "dtrader.log.file"
	KeyPluginDir   = "dtrader.plugins"
	KeyDatabaseURL = "dtrader.database.url"
	KeyAddr        = "dtrader.addr"
)

// Environment variables.
const (
	EnvLogLevel    = "DTRADER_LOG_LEVEL"
	EnvLogFile     = "DTRADER_LOG_FILE"
	EnvPluginDir   = "DTRADER_PLUGIN_DIR"
	EnvDatabaseURL = "DATABASE_URL"
)

type Config struct {
	PropertiesPath string
	PluginDir      string
	LogLevel       string
	LogFile        string
	DatabaseURL    string
	Addr           string

	// Properties holds every key of the loaded file, including the
	// dtrader.* ones above.
	Properties *properties.Properties
}

func Default() *Config {
	return &Config{
		PropertiesPath: DefaultPropertiesPath,
		LogLevel:       logger.LevelInfo,
		Addr:           DefaultAddr,
		Properties:     properties.NewProperties(),
	}
}

// Flags are the global options every dtrader command accepts.
type Flags struct {
	fs         *flag.FlagSet
	properties string
	plugins    string
	logLevel   string
	logFile    string
}

// Bind registers the global flags on fs.
func Bind(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.properties, "properties", DefaultPropertiesPath, "properties file loaded into the root scope")
	fs.StringVar(&f.plugins, "plugins", "", "directory of Go plugin functions")
	fs.StringVar(&f.logLevel, "log-level", logger.LevelInfo, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&f.logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	return f
}

func (f *Flags) set() map[string]bool {
	seen := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { seen[fl.Name] = true })
	return seen
}

// Resolve builds the configuration. Call it after the flag set is parsed.
// A missing properties file is only an error when --properties was given.
func (f *Flags) Resolve(getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	set := f.set()

	if set["properties"] {
		cfg.PropertiesPath = f.properties
	}
	// Values are kept literally, ${...} included.
	loader := &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
		IgnoreMissing:    !set["properties"],
	}
	p, err := loader.LoadAll([]string{cfg.PropertiesPath})
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", cfg.PropertiesPath, err)
	}
	cfg.Properties = p
	cfg.LogLevel = p.GetString(KeyLogLevel, cfg.LogLevel)
	cfg.LogFile = p.GetString(KeyLogFile, cfg.LogFile)
	cfg.PluginDir = p.GetString(KeyPluginDir, cfg.PluginDir)
	cfg.DatabaseURL = p.GetString(KeyDatabaseURL, cfg.DatabaseURL)
	cfg.Addr = p.GetString(KeyAddr, cfg.Addr)

	override(&cfg.LogLevel, getenv(EnvLogLevel))
	override(&cfg.LogFile, getenv(EnvLogFile))
	override(&cfg.PluginDir, getenv(EnvPluginDir))
	override(&cfg.DatabaseURL, getenv(EnvDatabaseURL))

	if set["plugins"] {
		cfg.PluginDir = f.plugins
	}
	if set["log-level"] {
		cfg.LogLevel = f.logLevel
	}
	if set["log-file"] {
		cfg.LogFile = f.logFile
	}
	cfg.LogLevel = logger.ParseLevel(cfg.LogLevel)
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyProperties copies every loaded property into s as Text.
func (c *Config) ApplyProperties(s *scope.Scope) int {
	if c.Properties == nil {
		return 0
	}
	keys := c.Properties.Keys()
	for _, k := range keys {
		v, _ := c.Properties.Get(k)
		s.PutProperty(k, value.Text(v))
	}
	return len(keys)
}

// Logger opens the configured log sink. out is used when no file is set.
func (c *Config) Logger(component string, out io.Writer) *logger.Logger {
	l := logger.New(component, out, c.LogFile)
	l.SetMinLevel(c.LogLevel)
	return l
}
