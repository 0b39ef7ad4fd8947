// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment override, e.g. AUTOLOGIN_BROWSER_NAME.
	EnvPrefix = "AUTOLOGIN"
	// DefaultConfigName is the base name searched for when no explicit file is given.
	DefaultConfigName = "autologin"
)

// Interface defines the contract for accessing application configuration.
// Page objects, the driver factory and the suite runner depend on this rather
// than on *Config so tests can hand them a trimmed-down fake.
type Interface interface {
	Browser() BrowserConfig
	Application() ApplicationConfig
	Wait() WaitConfig
	Screenshot() ScreenshotConfig
	Reporting() ReportingConfig
	Logging() LoggingConfig
	Suite() SuiteConfig

	SetBrowserName(string)
	SetBrowserHeadless(bool)
}

// Config holds the whole configuration. Each section maps onto one key group
// of the YAML file.
type Config struct {
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	ApplicationCfg ApplicationConfig `mapstructure:"application" yaml:"application"`
	WaitCfg        WaitConfig        `mapstructure:"wait" yaml:"wait"`
	ScreenshotCfg  ScreenshotConfig  `mapstructure:"screenshot" yaml:"screenshot"`
	ReportingCfg   ReportingConfig   `mapstructure:"reporting" yaml:"reporting"`
	LoggingCfg     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	SuiteCfg       SuiteConfig       `mapstructure:"suite" yaml:"suite"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Application() ApplicationConfig { return c.ApplicationCfg }
func (c *Config) Wait() WaitConfig               { return c.WaitCfg }
func (c *Config) Screenshot() ScreenshotConfig   { return c.ScreenshotCfg }
func (c *Config) Reporting() ReportingConfig     { return c.ReportingCfg }
func (c *Config) Logging() LoggingConfig         { return c.LoggingCfg }
func (c *Config) Suite() SuiteConfig             { return c.SuiteCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserName(name string) { c.BrowserCfg.Name = name }
func (c *Config) SetBrowserHeadless(b bool)  { c.BrowserCfg.Headless = b }

// BrowserConfig selects and shapes the browser launched for each test.
type BrowserConfig struct {
	// Name is one of chrome, chromium, firefox or webkit. Case does not matter.
	Name         string   `mapstructure:"name" yaml:"name"`
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	Args         []string `mapstructure:"args" yaml:"args"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	// ExecPath overrides the browser binary. Empty means let the driver find it.
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
	// Install fetches the playwright driver and browsers before a firefox or
	// webkit launch.
	Install bool `mapstructure:"install" yaml:"install"`
}

type ApplicationConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// WaitConfig values are whole seconds, matching the file format.
type WaitConfig struct {
	ImplicitWait int `mapstructure:"implicit_wait" yaml:"implicit_wait"`
	ExplicitWait int `mapstructure:"explicit_wait" yaml:"explicit_wait"`
}

// Implicit is the bound applied to every element lookup.
func (w WaitConfig) Implicit() time.Duration {
	return time.Duration(w.ImplicitWait) * time.Second
}

// Explicit is the bound applied to the Wait* conditions.
func (w WaitConfig) Explicit() time.Duration {
	return time.Duration(w.ExplicitWait) * time.Second
}

type ScreenshotConfig struct {
	OnFailure bool   `mapstructure:"on_failure" yaml:"on_failure"`
	Path      string `mapstructure:"path" yaml:"path"`
	// Keep is how many images Cleanup leaves behind.
	Keep int `mapstructure:"keep" yaml:"keep"`
}

type ReportingConfig struct {
	ReportPath string `mapstructure:"report_path" yaml:"report_path"`
}

// LoggingConfig drives both the console and the rotating file output.
type LoggingConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogPath     string      `mapstructure:"log_path" yaml:"log_path"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names a terminal color per level. Empty disables coloring for that level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// SuiteConfig tells the suite bridge where the suite document lives and how
// to invoke the host test runner.
type SuiteConfig struct {
	File       string        `mapstructure:"file" yaml:"file"`
	Packages   []string      `mapstructure:"packages" yaml:"packages"`
	WorkDir    string        `mapstructure:"work_dir" yaml:"work_dir"`
	GoBinary   string        `mapstructure:"go_binary" yaml:"go_binary"`
	BuildTags  []string      `mapstructure:"build_tags" yaml:"build_tags"`
	ReportFile string        `mapstructure:"report_file" yaml:"report_file"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a new configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults installs the documented default of every key. A key missing from
// the file always falls back to these.
func SetDefaults(v *viper.Viper) {
	// -- Browser --
	v.SetDefault("browser.name", "chrome")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.install", false)

	// -- Application --
	v.SetDefault("application.base_url", "http://localhost:8080")

	// -- Wait --
	v.SetDefault("wait.implicit_wait", 10)
	v.SetDefault("wait.explicit_wait", 15)

	// -- Screenshot --
	v.SetDefault("screenshot.on_failure", true)
	v.SetDefault("screenshot.path", "./screenshots")
	v.SetDefault("screenshot.keep", 50)

	// -- Reporting --
	v.SetDefault("reporting.report_path", "./reports")

	// -- Logging --
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.log_path", "./logs")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.add_source", true)
	v.SetDefault("logging.service_name", "autologin")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 0)
	v.SetDefault("logging.compress", false)
	v.SetDefault("logging.colors.debug", "cyan")
	v.SetDefault("logging.colors.info", "green")
	v.SetDefault("logging.colors.warn", "yellow")
	v.SetDefault("logging.colors.error", "red")
	v.SetDefault("logging.colors.dpanic", "magenta")
	v.SetDefault("logging.colors.panic", "magenta")
	v.SetDefault("logging.colors.fatal", "magenta")

	// -- Suite --
	v.SetDefault("suite.file", "testng.xml")
	v.SetDefault("suite.packages", []string{"./e2e/..."})
	v.SetDefault("suite.work_dir", ".")
	v.SetDefault("suite.go_binary", "go")
	v.SetDefault("suite.build_tags", []string{"e2e"})
	v.SetDefault("suite.report_file", "report.jsonl")
	v.SetDefault("suite.timeout", "0s")
}

// NewViper returns a viper instance with defaults installed and environment
// overrides bound under EnvPrefix.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path on top of the defaults. An empty
// path searches the working directory and ~/.autologin for autologin.yaml. A
// missing file is not an error; every key then takes its default. A .env file
// in the working directory is loaded first without overriding variables that
// are already set.
func Load(path string) (*Config, error) {
	v, err := Prepare(path)
	if err != nil {
		return nil, err
	}
	return NewConfigFromViper(v)
}

// Prepare does everything Load does short of unmarshaling, so callers can bind
// flags onto the returned instance first.
func Prepare(path string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := NewViper()
	if err := ReadInto(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadInto points v at the configuration file and reads it. Missing files are
// tolerated.
func ReadInto(v *viper.Viper, path string) error {
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return fmt.Errorf("error expanding config path %q: %w", path, err)
		}
		if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.ScreenshotCfg.Path,
		&c.ReportingCfg.ReportPath,
		&c.LoggingCfg.LogPath,
		&c.SuiteCfg.File,
		&c.SuiteCfg.WorkDir,
		&c.BrowserCfg.ExecPath,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("error expanding path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values. The browser name is not
// checked here: the driver factory owns that error.
func (c *Config) Validate() error {
	if c.WaitCfg.ImplicitWait < 0 {
		return fmt.Errorf("wait.implicit_wait must not be negative")
	}
	if c.WaitCfg.ExplicitWait < 0 {
		return fmt.Errorf("wait.explicit_wait must not be negative")
	}
	if c.LoggingCfg.MaxSize <= 0 {
		return fmt.Errorf("logging.max_size must be a positive integer")
	}
	if c.LoggingCfg.MaxBackups < 0 {
		return fmt.Errorf("logging.max_backups must not be negative")
	}
	if c.ScreenshotCfg.Keep < 0 {
		return fmt.Errorf("screenshot.keep must not be negative")
	}
	if c.SuiteCfg.GoBinary == "" {
		return fmt.Errorf("suite.go_binary is required")
	}
	return nil
}
