package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"springwatch/internal/config"
)

// IMAPArchiver appends sent notifications to a mailbox over IMAPS.
type IMAPArchiver struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	Timeout  time.Duration
}

// NewIMAPArchiver logs in with the SMTP account's credentials.
func NewIMAPArchiver(cfg config.Archive, s config.SMTP) IMAPArchiver {
	return IMAPArchiver{
		Addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		Username: s.Username,
		Password: s.Password,
		Mailbox:  cfg.Mailbox,
	}
}

func (a IMAPArchiver) Archive(ctx context.Context, raw []byte) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	host, _, err := net.SplitHostPort(a.Addr)
	if err != nil {
		host = a.Addr
	}
	c, err := dialAndLoginIMAP(ctx, a.Addr, a.Username, a.Password, &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
	})
	if err != nil {
		return err
	}
	defer logoutAndClose(c)

	cmd := c.Append(a.Mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	log.Printf("[notify] archived copy in %q", a.Mailbox)
	return nil
}

// dialAndLoginIMAP connects over TLS and logs in.
func dialAndLoginIMAP(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// Best-effort close on context cancel.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func logoutAndClose(c *imapclient.Client) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Printf("[notify] imap logout: %v", err)
	}
	_ = c.Close()
}
