package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpilot/internal/credential"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Gmail authorization and stored secrets",
	}
	cmd.AddCommand(newAuthURLCmd(), newAuthSaveCmd(), newAuthStatusCmd(), newAuthSecretCmd())
	return cmd
}

func newAuthURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the Google consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(newLogger())
			if err != nil {
				return err
			}
			auth, err := newGoogleAuth(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Open this URL in your browser and approve access:")
			fmt.Fprintln(out, auth.AuthCodeURL())
			fmt.Fprintln(out, "\nThen run: mailpilot auth save <code>")
			return nil
		},
	}
}

func newAuthSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <code>",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(newLogger())
			if err != nil {
				return err
			}
			auth, err := newGoogleAuth(cfg)
			if err != nil {
				return err
			}
			if err := auth.Exchange(cmd.Context(), strings.TrimSpace(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", auth.TokenPath())
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a Gmail token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(newLogger())
			if err != nil {
				return err
			}
			auth, err := newGoogleAuth(cfg)
			if err != nil {
				return err
			}
			if auth.HasToken() {
				fmt.Fprintf(cmd.OutOrStdout(), "Authorized (%s)\n", auth.TokenPath())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not authorized. Run: mailpilot auth url")
			}
			return nil
		},
	}
}

func newAuthSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret <key>",
		Short: "Store a secret in the system keyring, read from stdin",
		Long: fmt.Sprintf(`Store a secret in the system keyring. The value is read from the first
line of stdin so it does not end up in shell history.

Known keys: %s`, strings.Join(credential.Keys, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !credential.IsKnown(key) {
				return fmt.Errorf("unknown secret %q (known: %s)", key, strings.Join(credential.Keys, ", "))
			}
			value, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			store, err := credential.Open()
			if err != nil {
				return err
			}
			if err := store.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}
}

func readSecret(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return "", fmt.Errorf("no secret provided on stdin")
	}
	value := strings.TrimSpace(sc.Text())
	if value == "" {
		return "", fmt.Errorf("secret must not be empty")
	}
	return value, nil
}
