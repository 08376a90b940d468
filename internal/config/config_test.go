package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
email:
  username: me@example.com
sheet:
  spreadsheet_id: abc123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "imap.gmail.com", cfg.Email.IMAPHost)
	assert.Equal(t, 993, cfg.Email.IMAPPort)
	assert.Equal(t, "INBOX", cfg.Email.Mailbox)
	assert.Equal(t, "jobs-noreply@linkedin.com", cfg.Email.Sender)
	assert.Equal(t, 50, cfg.Email.MaxEmails)
	assert.Equal(t, "Applications", cfg.Sheet.Worksheet)
	assert.Equal(t, 1, cfg.Sheet.HeaderRows)
	assert.Equal(t, "LinkedIn", cfg.Tracker.Source)
	assert.Equal(t, "N/A", cfg.Tracker.Contact)
	assert.Equal(t, 24, cfg.Tracker.MaxCompanyLen)
	assert.Equal(t, 30, cfg.Tracker.MaxTitleLen)
	assert.Equal(t, 300, cfg.Tracker.IntervalSeconds)

	assert.NoError(t, Validate(cfg))
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
email:
  imap_host: mail.example.com
  imap_port: 1993
  username: me@example.com
  max_emails: 10
sheet:
  spreadsheet_id: abc123
  worksheet: Tracker
tracker:
  max_title_len: 40
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:1993", cfg.IMAPAddr())
	assert.Equal(t, 10, cfg.Email.MaxEmails)
	assert.Equal(t, "Tracker", cfg.Sheet.Worksheet)
	assert.Equal(t, 40, cfg.Tracker.MaxTitleLen)
}

func TestValidateReportsAllProblems(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email.username")
	assert.Contains(t, err.Error(), "sheet.spreadsheet_id")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestEnsureUserConfig(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := writeConfig(t, "email:\n  username: seeded@example.com\n")

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, "seeded@example.com", cfg.Email.Username)

	// Second call leaves the existing user copy alone.
	require.NoError(t, os.WriteFile(userPath, []byte("email:\n  username: edited@example.com\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)

	cfg, err = Load(again)
	require.NoError(t, err)
	assert.Equal(t, "edited@example.com", cfg.Email.Username)
}
