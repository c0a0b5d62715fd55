package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a trimmed copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	t := &out.Target
	t.URL = strings.TrimSpace(t.URL)
	t.Locale = strings.TrimSpace(t.Locale)
	t.PageDataSelector = strings.TrimSpace(t.PageDataSelector)
	out.Files.ListingsCSV = strings.TrimSpace(out.Files.ListingsCSV)
	out.Files.MailingCSV = strings.TrimSpace(out.Files.MailingCSV)

	// ---- target ----

	if u, err := url.Parse(t.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		res.addErr("target.url must be an absolute http(s) URL")
	}

	positive := func(name string, d time.Duration) {
		if d <= 0 {
			res.addErr("%s must be > 0", name)
		}
	}
	positive("target.navigation_timeout", t.NavigationTimeout)
	positive("target.scroll_pause", t.ScrollPause)
	positive("target.scroll_timeout", t.ScrollTimeout)
	positive("target.page_data_timeout", t.PageDataTimeout)
	if t.SettleDelay < 0 {
		res.addErr("target.settle_delay must be >= 0")
	}

	if t.StagnantRounds <= 0 {
		res.addErr("target.stagnant_rounds must be > 0")
	}
	if t.MaxScrolls <= 0 {
		res.addErr("target.max_scrolls must be > 0")
	} else if t.MaxScrolls < t.StagnantRounds {
		res.addWarn("target.max_scrolls (%d) is below stagnant_rounds (%d); scrolling always stops at the cap.", t.MaxScrolls, t.StagnantRounds)
	}
	if t.ScrollPause > 0 && t.ScrollPause < 200*time.Millisecond {
		res.addWarn("target.scroll_pause is very low (%s); lazy-loaded pages may look stagnant too early.", t.ScrollPause)
	}

	if t.PageDataSelector == "" {
		res.addWarn("target.page_data_selector is empty; the embedded payload fallback is disabled.")
	}

	// ---- files ----

	if out.Files.ListingsCSV == "" {
		res.addErr("files.listings_csv is required")
	}
	if out.Files.MailingCSV == "" {
		res.addErr("files.mailing_csv is required")
	}

	// ---- mail ----

	if strings.TrimSpace(out.Mail.Subject) == "" {
		res.addErr("mail.subject is required")
	}

	a := &out.Mail.Archive
	if a.Enabled {
		if strings.TrimSpace(a.IMAPHost) == "" {
			res.addErr("mail.archive.imap_host is required when mail.archive.enabled=true")
		}
		if a.IMAPPort <= 0 || a.IMAPPort > 65535 {
			res.addErr("mail.archive.imap_port must be 1..65535")
		}
		if strings.TrimSpace(a.Mailbox) == "" {
			res.addErr("mail.archive.mailbox is required when mail.archive.enabled=true")
		}
	}

	return out, res
}
