package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"springwatch/internal/config"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "springwatch"
)

func SMTPKeyringAccount(s config.SMTP) string {
	return fmt.Sprintf("smtp:%s@%s", s.Username, s.Host)
}

func GetSMTPPassword(account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("SMTP password not found (set SMTP_PASS_APP or store it in the keychain)")
}

func SetSMTPPassword(account string, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteSMTPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// FillSMTPPassword returns s with its password taken from the keychain when
// the environment did not provide one.
func FillSMTPPassword(s config.SMTP) config.SMTP {
	if s.Password != "" || s.Username == "" {
		return s
	}
	if pw, err := GetSMTPPassword(SMTPKeyringAccount(s)); err == nil {
		s.Password = pw
	}
	return s
}
