package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/ridebook/internal/cli/output"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

func newSignupCmd(rt *runtime) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = rt.run(func(cmd *cobra.Command, _ []string) error {
		pw, err := passwordOrPrompt(cmd, password)
		if err != nil {
			return err
		}
		u, err := rt.app.Session.Signup(cmd.Context(), gateway.SignupInput{Name: name, Email: email, Password: pw})
		if err != nil {
			return authFailure(err, "Failed to sign up")
		}
		rt.printer.Success("Signed up as %s <%s>", u.Name, u.Email)
		return nil
	})
	return cmd
}

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the booking service",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = rt.run(func(cmd *cobra.Command, _ []string) error {
		pw, err := passwordOrPrompt(cmd, password)
		if err != nil {
			return err
		}
		u, err := rt.app.Session.Login(cmd.Context(), gateway.LoginInput{Email: email, Password: pw})
		if err != nil {
			return authFailure(err, "Failed to login")
		}
		rt.printer.Success("Logged in as %s <%s>", u.Name, u.Email)
		return nil
	})
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: rt.run(func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Session.Logout(cmd.Context()); err != nil {
				return &output.CLIError{Summary: "could not remove saved session", Detail: err.Error()}
			}
			rt.printer.Success("Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: rt.run(func(cmd *cobra.Command, _ []string) error {
			if !rt.app.Session.IsAuthenticated() {
				return errNotLoggedIn()
			}
			c, _ := rt.app.Session.Credential()
			name := c.DisplayName
			if name == "" {
				name = string(c.SubjectID)
			}
			rt.printer.Print("%s", rt.printer.Bold(name))
			if c.Email != "" {
				rt.printer.Print("email:   %s", c.Email)
			}
			rt.printer.Print("expires: %s", c.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		}),
	}
}

func passwordOrPrompt(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", &output.CLIError{Summary: "password is required", ExitCode: output.ExitUsageError}
	}
	return pw, nil
}

func authFailure(err error, fallback string) error {
	code := output.ExitGeneral
	if gateway.IsUnauthorized(err) {
		code = output.ExitAuthError
	}
	return &output.CLIError{Summary: gateway.UserMessage(err, fallback), Detail: err.Error(), ExitCode: code}
}

func errNotLoggedIn() error {
	return &output.CLIError{
		Summary:    "not logged in",
		Suggestion: "run 'ridebook login' or 'ridebook signup'",
		ExitCode:   output.ExitAuthError,
	}
}
