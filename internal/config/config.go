// Package config loads the CLI configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/amex"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "amex-offers.yaml"

type BrowserConfig struct {
	Headless     bool   `yaml:"headless" env:"AMEX_HEADLESS" env-description:"run Chrome without a window"`
	ProfileDir   string `yaml:"profile_dir" env:"AMEX_PROFILE_DIR" env-description:"Chrome profile kept between runs"`
	Bin          string `yaml:"bin" env:"AMEX_CHROME_BIN" env-description:"Chrome binary, empty for auto-detect"`
	WindowWidth  int    `yaml:"window_width" env:"AMEX_WINDOW_WIDTH" env-default:"1280"`
	WindowHeight int    `yaml:"window_height" env:"AMEX_WINDOW_HEIGHT" env-default:"900"`
}

type SiteConfig struct {
	URLPattern    string        `yaml:"url_pattern" env:"AMEX_URL_PATTERN" env-default:"global.americanexpress.com/offers" env-description:"page URL must contain this"`
	LoginTimeout  time.Duration `yaml:"login_timeout" env:"AMEX_LOGIN_TIMEOUT" env-default:"5m" env-description:"how long to wait for the offers page after login"`
	SelectorsFile string        `yaml:"selectors_file" env:"AMEX_SELECTORS_FILE" env-description:"selectors.yaml written by analyze-page"`
	Username      string        `yaml:"-" env:"AMEX_USERNAME" env-description:"login user id, empty for manual login"`
	Password      string        `yaml:"-" env:"AMEX_PASSWORD" env-description:"login password"`
}

type OutputConfig struct {
	Dir   string `yaml:"dir" env:"AMEX_OUTPUT_DIR" env-default:"." env-description:"directory for the JSON export"`
	JSON  bool   `yaml:"json" env:"AMEX_OUTPUT_JSON"`
	Table bool   `yaml:"table" env:"AMEX_OUTPUT_TABLE"`
}

type SheetsConfig struct {
	SheetID   string `yaml:"sheet_id" env:"SHEETS_ID" env-description:"spreadsheet id, empty disables Sheets logging"`
	SheetName string `yaml:"sheet_name" env:"SHEETS_NAME" env-default:"Amex Offers"`
	Endpoint  string `yaml:"endpoint" env:"SHEETS_ENDPOINT" env-default:"https://sheets.googleapis.com"`
	APIKey    string `yaml:"-" env:"SHEETS_API_KEY" env-description:"Google API key"`
}

// Config defines the overall structure of the CLI configuration. Values are
// taken from the YAML file, then overridden by environment variables.
// Secrets are only read from the environment.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	Sheets  SheetsConfig  `yaml:"sheets"`
	Debug   bool          `yaml:"debug" env:"AMEX_DEBUG"`
	LogJSON bool          `yaml:"log_json" env:"AMEX_LOG_JSON"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			ProfileDir:   filepath.Join(dataDir(), "browser-profile"),
			WindowWidth:  1280,
			WindowHeight: 900,
		},
		Site: SiteConfig{
			URLPattern:   amex.OffersURLPattern,
			LoginTimeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			Dir:   ".",
			JSON:  true,
			Table: true,
		},
		Sheets: SheetsConfig{
			SheetName: "Amex Offers",
			Endpoint:  "https://sheets.googleapis.com",
		},
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./amex-offers-data"
	}
	return filepath.Join(home, ".amex-offers")
}

// Load reads path on top of Default and applies the environment. A missing
// file is created with the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if cfg.Site.LoginTimeout <= 0 {
		return nil, fmt.Errorf("site.login_timeout must be positive, got %s", cfg.Site.LoginTimeout)
	}
	return cfg, nil
}

// Save writes the file-backed part of cfg as YAML. Secrets are never written.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Selectors returns the default selectors, overlaid with the analyzer's
// selectors file when one is configured.
func (c *Config) Selectors() (offers.SelectorConfig, error) {
	base := amex.DefaultSelectors()
	if c.Site.SelectorsFile == "" {
		return base, nil
	}
	return offers.LoadSelectors(c.Site.SelectorsFile, base)
}

// Describe lists the environment variables the config understands.
func Describe() (string, error) {
	return cleanenv.GetDescription(&Config{}, nil)
}
