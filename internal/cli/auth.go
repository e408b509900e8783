package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/wirewave/internal/messenger"
)

func newLoginCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(opts, runLogin),
	}
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string, a *app) error {
	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	result, err := a.client.Login(ctx, args[0], password)
	if err != nil {
		return exitFor(err, "login failed")
	}
	if err := a.session.Login(ctx, result.Token, result.Email); err != nil {
		return err
	}
	if a.json {
		return writeJSON(a.out, map[string]string{"email": a.session.Email()})
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.session.Email())
	return nil
}

func newRegisterCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			if err := a.client.Register(cmd.Context(), args[0], password); err != nil {
				return exitFor(err, "registration failed")
			}
			fmt.Fprintln(a.out, "Account created. Run `wirewave login` to sign in.")
			return nil
		}),
	}
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(_ *cobra.Command, _ []string, a *app) error {
			exp := a.session.ExpiresAt()
			if a.json {
				out := map[string]any{"email": a.session.Email(), "api": a.client.BaseURL()}
				if !exp.IsZero() {
					out["expires_at"] = exp
				}
				return writeJSON(a.out, out)
			}
			fmt.Fprintln(a.out, a.session.Email())
			if !exp.IsZero() {
				fmt.Fprintf(a.out, "session expires %s\n", relative(exp))
			}
			return nil
		}),
	}
}

func newAccountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the account",
	}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account and log out",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return Exitf(ExitCodeUsage, "refusing to delete without --yes")
			}
			acct := messenger.NewAccount(a.client, a.session, a.sink())
			return reported(acct.Delete(cmd.Context()))
		}),
	}
	deleteCmd.Flags().Bool("yes", false, "confirm deletion")
	cmd.AddCommand(deleteCmd)
	return cmd
}

// readPassword reads a password from the terminal without echo, or one
// line from stdin when --password-stdin is set or stdin is not a TTY.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", Exitf(ExitCodeUsage, "password required")
	}
	return password, nil
}
