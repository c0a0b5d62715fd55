package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SMTP holds the mail submission settings, all of which come from the
// environment rather than the config file.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (s SMTP) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// SMTPFromEnv reads SMTP_SERVER, SMTP_PORT, SMTP_USER and SMTP_PASS_APP.
// Missing credentials are left empty; the notifier refuses to send without them.
func SMTPFromEnv() (SMTP, error) {
	s := SMTP{
		Host:     envOr("SMTP_SERVER", "smtp.gmail.com"),
		Port:     587,
		Username: strings.TrimSpace(os.Getenv("SMTP_USER")),
		Password: os.Getenv("SMTP_PASS_APP"),
	}
	if p := strings.TrimSpace(os.Getenv("SMTP_PORT")); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return s, fmt.Errorf("SMTP_PORT %q is not a valid port", p)
		}
		s.Port = n
	}
	return s, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
