package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults_Valid(t *testing.T) {
	_, res := NormalizeAndValidate(Defaults())
	assert.True(t, res.OK(), res.Errors)
	assert.NoError(t, res.Err())
}

func TestEmbeddedDefault_MatchesDefaults(t *testing.T) {
	path := writeConfig(t, string(defaultYAML))
	cfg, err := Load(path)
	require.NoError(t, err)

	d := Defaults()
	assert.Equal(t, d.Target, cfg.Target)
	assert.Equal(t, d.Files, cfg.Files)
	assert.Equal(t, d.Mail.Subject, cfg.Mail.Subject)
	assert.Equal(t, d.Mail.NewIntro, cfg.Mail.NewIntro)
	assert.Equal(t, d.Mail.OldIntro, cfg.Mail.OldIntro)
	assert.Equal(t, d.Mail.Archive, cfg.Mail.Archive)
	assert.Empty(t, cfg.History.DBPath)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  url: https://example.com/board
  scroll_pause: 500ms
  max_scrolls: 10
history:
  db_path: history.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/board", cfg.Target.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.Target.ScrollPause)
	assert.Equal(t, 10, cfg.Target.MaxScrolls)
	assert.Equal(t, 3, cfg.Target.StagnantRounds)
	assert.True(t, cfg.Target.Headless)
	assert.Equal(t, "history.db", cfg.History.DBPath)
	assert.Equal(t, "email.csv", cfg.Files.MailingCSV)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "target: [not, a, map"))
	assert.Error(t, err)
}

func TestNormalizeAndValidate_Errors(t *testing.T) {
	cfg := Defaults()
	cfg.Target.URL = "not a url"
	cfg.Target.StagnantRounds = 0
	cfg.Target.ScrollTimeout = 0
	cfg.Files.ListingsCSV = "  "
	cfg.Mail.Archive.Enabled = true
	cfg.Mail.Archive.IMAPHost = ""

	out, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors, "target.url must be an absolute http(s) URL")
	assert.Contains(t, res.Errors, "target.stagnant_rounds must be > 0")
	assert.Contains(t, res.Errors, "target.scroll_timeout must be > 0")
	assert.Contains(t, res.Errors, "files.listings_csv is required")
	assert.Contains(t, res.Errors, "mail.archive.imap_host is required when mail.archive.enabled=true")
	assert.Empty(t, out.Files.ListingsCSV)
	assert.ErrorContains(t, res.Err(), "config validation failed")
}

func TestNormalizeAndValidate_Warnings(t *testing.T) {
	cfg := Defaults()
	cfg.Target.MaxScrolls = 2
	cfg.Target.ScrollPause = 50 * time.Millisecond
	cfg.Target.PageDataSelector = ""

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Len(t, res.Warnings, 3)
}

func TestResolvePaths(t *testing.T) {
	cfg := Defaults()
	cfg.Files.MailingCSV = "/etc/springwatch/email.csv"
	cfg.History.DBPath = "history.db"
	cfg.ResolvePaths("/var/lib/springwatch")

	assert.Equal(t, "/var/lib/springwatch/processus_ouverts.csv", cfg.Files.ListingsCSV)
	assert.Equal(t, "/etc/springwatch/email.csv", cfg.Files.MailingCSV)
	assert.Equal(t, "/var/lib/springwatch/history.db", cfg.History.DBPath)

	cfg.History.DBPath = ""
	cfg.ResolvePaths("/x")
	assert.Empty(t, cfg.History.DBPath)
}

func TestEnsureUserConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultYAML, b)

	require.NoError(t, os.WriteFile(path, []byte("files:\n  listings_csv: mine.csv\n"), 0o644))
	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "mine.csv")
}

func TestDefaults_MailText(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "Nouveaux Spring ouverts", d.Mail.Subject)
	assert.Equal(t, "Voici la liste des nouveaux Spring internships:", d.Mail.NewIntro)
	assert.Equal(t, "Voici la liste des Spring internships qui sont déjà ouverts:", d.Mail.OldIntro)
}
