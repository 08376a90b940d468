package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Email struct {
		IMAPHost  string `yaml:"imap_host"`
		IMAPPort  int    `yaml:"imap_port"`
		Username  string `yaml:"username"`
		Mailbox   string `yaml:"mailbox"`
		Sender    string `yaml:"sender"`     // platform notification address
		MaxEmails int    `yaml:"max_emails"` // per pass
	} `yaml:"email"`

	Sheet struct {
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		Worksheet       string `yaml:"worksheet"`
		CredentialsFile string `yaml:"credentials_file"`
		HeaderRows      int    `yaml:"header_rows"`
	} `yaml:"sheet"`

	Tracker struct {
		Source          string `yaml:"source"`
		Contact         string `yaml:"contact"`
		MaxCompanyLen   int    `yaml:"max_company_len"`
		MaxTitleLen     int    `yaml:"max_title_len"`
		IntervalSeconds int    `yaml:"interval_seconds"`
	} `yaml:"tracker"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.DataDir == "" {
		c.App.DataDir = "."
	}
	if c.Email.IMAPHost == "" {
		c.Email.IMAPHost = "imap.gmail.com"
	}
	if c.Email.IMAPPort == 0 {
		c.Email.IMAPPort = 993
	}
	if c.Email.Mailbox == "" {
		c.Email.Mailbox = "INBOX"
	}
	if c.Email.Sender == "" {
		c.Email.Sender = "jobs-noreply@linkedin.com"
	}
	if c.Email.MaxEmails == 0 {
		c.Email.MaxEmails = 50
	}
	if c.Sheet.Worksheet == "" {
		c.Sheet.Worksheet = "Applications"
	}
	if c.Sheet.HeaderRows == 0 {
		c.Sheet.HeaderRows = 1
	}
	if c.Tracker.Source == "" {
		c.Tracker.Source = "LinkedIn"
	}
	if c.Tracker.Contact == "" {
		c.Tracker.Contact = "N/A"
	}
	if c.Tracker.MaxCompanyLen == 0 {
		c.Tracker.MaxCompanyLen = 24
	}
	if c.Tracker.MaxTitleLen == 0 {
		c.Tracker.MaxTitleLen = 30
	}
	if c.Tracker.IntervalSeconds == 0 {
		c.Tracker.IntervalSeconds = 300
	}
}

// IMAPAddr is the host:port dial target.
func (c Config) IMAPAddr() string {
	if strings.Contains(c.Email.IMAPHost, ":") {
		return c.Email.IMAPHost
	}
	return fmt.Sprintf("%s:%d", c.Email.IMAPHost, c.Email.IMAPPort)
}

func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Email.Username) == "" {
		errs = append(errs, "email.username is required")
	}
	if cfg.Email.IMAPPort <= 0 || cfg.Email.IMAPPort > 65535 {
		errs = append(errs, "email.imap_port must be 1..65535")
	}
	if strings.TrimSpace(cfg.Sheet.SpreadsheetID) == "" {
		errs = append(errs, "sheet.spreadsheet_id is required")
	}
	if cfg.Sheet.HeaderRows < 0 {
		errs = append(errs, "sheet.header_rows must be >= 0")
	}
	if cfg.Tracker.MaxCompanyLen < 4 {
		errs = append(errs, "tracker.max_company_len must be >= 4")
	}
	if cfg.Tracker.MaxTitleLen < 4 {
		errs = append(errs, "tracker.max_title_len must be >= 4")
	}
	if cfg.Tracker.IntervalSeconds <= 0 {
		errs = append(errs, "tracker.interval_seconds must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// EnsureUserConfig copies the bundled default config into the data dir
// on first run and returns the user config path.
func EnsureUserConfig(dataDir, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
