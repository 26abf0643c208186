package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/tock/internal/alert"
	"github.com/marcus/tock/internal/auth"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	tocksync "github.com/marcus/tock/internal/sync"
	"github.com/marcus/tock/internal/syncclient"
	"github.com/marcus/tock/internal/syncconfig"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage sync authentication",
	GroupID: "sync",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the sync server",
	Long: `Log in to the sync server.

The passphrase never leaves this device. It derives the encryption key, which
is stored wrapped with a key bound to this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		server, _ := cmd.Flags().GetString("server")
		if server == "" {
			server = syncconfig.GetServerURL()
		}

		email, passphrase, err := promptLogin(email)
		if err != nil {
			return err
		}
		if email == "" || passphrase == "" {
			output.Error("email and passphrase are required")
			return errors.New("missing credentials")
		}

		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if a.deviceID == "" {
			output.Error(tocksync.MsgDeviceError)
			return errors.New(tocksync.MsgDeviceError)
		}

		if err := a.auth.Login(cmd.Context(), email, passphrase, server); err != nil {
			output.Error("%s", loginMessage(err))
			return err
		}
		if server != syncconfig.GetServerURL() {
			if err := syncconfig.SetServerURL(server); err != nil {
				output.Warning("could not save server url: %v", err)
			}
		}

		output.Success("Logged in as %s", strings.ToLower(strings.TrimSpace(email)))
		return nil
	},
}

// loginMessage maps a login error onto the text shown to the user.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, syncclient.ErrInvalidServerURL):
		return tocksync.MsgServerProtocol
	case errors.Is(err, syncclient.ErrInactiveSubscription):
		return tocksync.MsgInactive
	default:
		return fmt.Sprintf("login failed: %v", err)
	}
}

// promptLogin collects email and passphrase. On a terminal without --email a
// huh form asks for both; otherwise the passphrase is read without echo, or
// as one line from stdin when stdin is not a terminal.
func promptLogin(email string) (string, string, error) {
	var passphrase string
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	if interactive && email == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter an email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&passphrase),
		)).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return "", "", err
		}
		return email, passphrase, nil
	}

	if email == "" {
		return "", "", errors.New("--email is required when stdin is not a terminal")
	}

	if interactive {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", fmt.Errorf("read passphrase: %w", err)
		}
		return email, string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", "", fmt.Errorf("read passphrase: %w", err)
	}
	return email, strings.TrimRight(line, "\r\n"), nil
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and remove the stored key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if !a.sync.LoggedIn() {
			fmt.Println("Not logged in.")
			return nil
		}

		ran, err := newDispatcher(cmd, a).Dispatch(cmd.Context(), alert.ConfirmLogout{})
		if err != nil {
			output.Error("logout: %v", err)
			return err
		}
		if ran {
			fmt.Println("Logged out.")
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		creds, err := a.db.GetCredentials()
		if err != nil {
			output.Error("load credentials: %v", err)
			return err
		}
		if creds == nil {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Printf("Email:  %s\n", creds.Email)
		fmt.Printf("Server: %s\n", creds.Server)
		fmt.Printf("State:  %s\n", a.auth.State())
		fmt.Printf("Key:    %s\n", output.MaskSecret(creds.EncryptedKey))
		if auth.AccessTokenExpired(creds.AccessToken, timeNow()) {
			output.Warning("access token expired; it is refreshed on the next sync")
		}
		return nil
	},
}

// newDispatcher confirms intents with huh unless --yes was given.
func newDispatcher(cmd *cobra.Command, actions alert.Actions) *alert.Dispatcher {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return alert.NewDispatcher(actions, alert.AutoConfirm)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return alert.NewDispatcher(actions, func(prompt string) (bool, error) {
			return false, fmt.Errorf("%s (use --yes to confirm non-interactively)", prompt)
		})
	}
	return alert.NewDispatcher(actions, alert.HuhConfirm)
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("server", "", "sync server url, including http:// or https://")
	authLogoutCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
