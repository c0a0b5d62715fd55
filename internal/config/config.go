package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultTargetURL = "https://app.the-trackr.com/uk-finance/spring-weeks"

type Target struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent"`
	Locale    string `yaml:"locale"`
	Headless  bool   `yaml:"headless"`

	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	ScrollPause       time.Duration `yaml:"scroll_pause"`
	StagnantRounds    int           `yaml:"stagnant_rounds"`
	MaxScrolls        int           `yaml:"max_scrolls"`
	ScrollTimeout     time.Duration `yaml:"scroll_timeout"`

	PageDataSelector string        `yaml:"page_data_selector"`
	PageDataTimeout  time.Duration `yaml:"page_data_timeout"`
}

type Archive struct {
	Enabled  bool   `yaml:"enabled"`
	IMAPHost string `yaml:"imap_host"`
	IMAPPort int    `yaml:"imap_port"`
	Mailbox  string `yaml:"mailbox"`
}

type Config struct {
	Target Target `yaml:"target"`

	Files struct {
		ListingsCSV string `yaml:"listings_csv"`
		MailingCSV  string `yaml:"mailing_csv"`
	} `yaml:"files"`

	Mail struct {
		Subject  string  `yaml:"subject"`
		NewIntro string  `yaml:"new_intro"`
		OldIntro string  `yaml:"old_intro"`
		Archive  Archive `yaml:"archive"`
	} `yaml:"mail"`

	History struct {
		// DBPath enables the sqlite run history when set.
		DBPath string `yaml:"db_path"`
	} `yaml:"history"`
}

func Defaults() Config {
	var c Config
	c.Target = Target{
		URL: DefaultTargetURL,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) " +
			"Chrome/124.0 Safari/537.36",
		Locale:            "fr-FR",
		Headless:          true,
		NavigationTimeout: 90 * time.Second,
		SettleDelay:       2 * time.Second,
		ScrollPause:       1200 * time.Millisecond,
		StagnantRounds:    3,
		MaxScrolls:        200,
		ScrollTimeout:     5 * time.Minute,
		PageDataSelector:  "script#__NEXT_DATA__",
		PageDataTimeout:   2 * time.Second,
	}
	c.Files.ListingsCSV = "processus_ouverts.csv"
	c.Files.MailingCSV = "email.csv"
	c.Mail.Subject = "Nouveaux Spring ouverts"
	c.Mail.NewIntro = "Voici la liste des nouveaux Spring internships:"
	c.Mail.OldIntro = "Voici la liste des Spring internships qui sont déjà ouverts:"
	c.Mail.Archive.IMAPHost = "imap.gmail.com"
	c.Mail.Archive.IMAPPort = 993
	c.Mail.Archive.Mailbox = "[Gmail]/Sent Mail"
	return c
}

// Load reads path over Defaults(), so the file only needs the keys it changes.
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePaths makes relative file paths relative to dataDir.
func (c *Config) ResolvePaths(dataDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dataDir, p)
	}
	c.Files.ListingsCSV = resolve(c.Files.ListingsCSV)
	c.Files.MailingCSV = resolve(c.Files.MailingCSV)
	c.History.DBPath = resolve(c.History.DBPath)
}
