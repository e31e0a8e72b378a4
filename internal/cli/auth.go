package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/agora/internal/keys"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store the forum token in the system keyring",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

// readToken prompts without echo on a terminal and reads the first line of
// stdin otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save a token for base_url (read from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			tok, err := readToken(cmd)
			if err != nil {
				return err
			}
			if tok == "" {
				return errors.New("empty token")
			}
			origin := keys.Origin(app.Cfg.GetString("base_url"))
			if err := app.Tokens.Put(origin, tok); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved token for %s\n", origin)
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token for base_url",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			origin := keys.Origin(app.Cfg.GetString("base_url"))
			if err := app.Tokens.Delete(origin); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed token for %s\n", origin)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token for base_url comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			origin := keys.Origin(app.Cfg.GetString("base_url"))
			source := "none"
			switch {
			case strings.TrimSpace(app.Cfg.GetString("auth.token")) != "":
				source = "config"
			case app.Cfg.GetBool("auth.keyring"):
				if _, err := app.Tokens.Get(origin); err == nil {
					source = "keyring"
				} else if !errors.Is(err, keys.ErrTokenNotFound) {
					app.Log.Warn.Printf("keyring: %v", err)
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", origin, source)
			return nil
		},
	}
}
