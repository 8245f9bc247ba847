package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
	"github.com/mcoot/s3arena/internal/session"
)

func newLoginCmd(e *env) *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.api.Login(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			if err := e.store.Save(sess); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			e.sess = sess
			e.logger.Debug("session saved", "path", e.cfg.SessionFile)

			e.out.Print(sess)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.store.Clear(); err != nil {
				return err
			}
			e.sess = nil
			e.out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}
			e.out.Print(sess)
			return nil
		},
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var (
		reg  client.Registration
		role string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a player, coach or management account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := session.ParseRole(role)
			if err != nil {
				return err
			}
			if r == session.RoleParent {
				return errors.New("parents register with 'register-parent'")
			}
			reg.Role = r

			user, err := e.api.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			e.out.Print(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&reg.Password, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&role, "role", string(session.RolePlayer), "Role: player, coach, management")
	cmd.Flags().StringVar(&reg.Sport, "sport", "", "Sport, e.g. table_tennis")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newRegisterParentCmd(e *env) *cobra.Command {
	var reg client.ParentRegistration

	cmd := &cobra.Command{
		Use:   "register-parent",
		Short: "Register a parent account linked to a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := e.api.RegisterParent(cmd.Context(), reg)
			if err != nil {
				return err
			}
			e.out.Print(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&reg.Password, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&reg.ChildPlayerID, "child-player-id", "", "The child's player ID, e.g. S3-0004 (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")
	_ = cmd.MarkFlagRequired("child-player-id")

	return cmd
}

func newAuthCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Token management commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Long: `Exchange the stored refresh token for a new access token.

If the server rejects the refresh token the session is cleared and you must
log in again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}

			next, err := e.api.RefreshAccess(cmd.Context())
			if client.IsStatus(err, http.StatusUnauthorized) {
				if clearErr := e.store.Clear(); clearErr != nil {
					return clearErr
				}
				return fmt.Errorf("%w; logged out", err)
			}
			if err != nil {
				return err
			}

			if err := e.store.Save(next); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			e.sess = next
			e.out.PrintMessage("Access token refreshed")
			return nil
		},
	})

	return cmd
}
