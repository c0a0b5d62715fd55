package commands

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"springwatch/internal/config"
	"springwatch/internal/notify"
	"springwatch/internal/poll"
	"springwatch/internal/scrape/trackr"
	"springwatch/internal/secrets"
	"springwatch/internal/store"
)

const lockFile = "springwatch.lock"

type app struct {
	dataDir string
	cfg     config.Config
	smtp    config.SMTP
}

func resolveDataDir() string {
	if d := strings.TrimSpace(dataDir); d != "" {
		return d
	}
	if d := strings.TrimSpace(os.Getenv("SPRINGWATCH_DATA_DIR")); d != "" {
		return d
	}
	return "."
}

// loadApp reads .env, the config file and the SMTP settings for the data dir.
func loadApp() (*app, error) {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		p, err := config.EnsureUserConfig(dir)
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	cfg.ResolvePaths(dir)

	s, err := config.SMTPFromEnv()
	if err != nil {
		return nil, err
	}

	return &app{
		dataDir: dir,
		cfg:     cfg,
		smtp:    secrets.FillSMTPPassword(s),
	}, nil
}

// deps wires the pipeline. The returned func releases the history database.
func (a *app) deps(dryRun bool) (poll.Deps, func(), error) {
	d := poll.Deps{
		Fetcher:     trackr.New(trackr.Config(a.cfg.Target)),
		ListingsCSV: a.cfg.Files.ListingsCSV,
		MailingCSV:  a.cfg.Files.MailingCSV,
		LockPath:    filepath.Join(a.dataDir, lockFile),
	}

	if !dryRun {
		if a.smtp.Username == "" || a.smtp.Password == "" {
			log.Printf("[notify] warning: SMTP_USER or SMTP_PASS_APP missing, sending will fail")
		}
		var archiver notify.Archiver
		if a.cfg.Mail.Archive.Enabled {
			archiver = notify.NewIMAPArchiver(a.cfg.Mail.Archive, a.smtp)
		}
		d.Notifier = notify.NewMailer(a.smtp, notify.Template{
			Subject:  a.cfg.Mail.Subject,
			NewIntro: a.cfg.Mail.NewIntro,
			OldIntro: a.cfg.Mail.OldIntro,
		}, archiver)
	}

	closeFn := func() {}
	if a.cfg.History.DBPath != "" {
		db, err := store.Open(a.cfg.History.DBPath)
		if err != nil {
			return d, nil, fmt.Errorf("open history %s: %w", a.cfg.History.DBPath, err)
		}
		d.History = db
		closeFn = func() { _ = db.Close() }
	}
	return d, closeFn, nil
}
