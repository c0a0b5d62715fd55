package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"springwatch/internal/secrets"
)

func init() {
	passwordCmd.AddCommand(passwordSetCmd, passwordDeleteCmd)
	rootCmd.AddCommand(passwordCmd)
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manages the SMTP app password kept in the OS keychain.",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Reads the SMTP app password from stdin and stores it for SMTP_USER.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		if a.smtp.Username == "" {
			return errors.New("SMTP_USER is not set")
		}
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		account := secrets.SMTPKeyringAccount(a.smtp)
		if err := secrets.SetSMTPPassword(account, strings.TrimSpace(line)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s\n", account)
		return nil
	},
}

var passwordDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Removes the stored SMTP app password.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return secrets.DeleteSMTPPassword(secrets.SMTPKeyringAccount(a.smtp))
	},
}
