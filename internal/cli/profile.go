package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
)

func newProfileCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit your profile",
	}

	cmd.AddCommand(newProfileShowCmd(e))
	cmd.AddCommand(newProfileUpdateCmd(e))
	cmd.AddCommand(newProfilePhotoCmd(e))

	return cmd
}

func newProfileShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your account details",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}
			user, err := e.api.User(cmd.Context(), sess.UserID)
			if err != nil {
				return err
			}
			e.out.Print(user)
			return nil
		},
	}
}

func newProfileUpdateCmd(e *env) *cobra.Command {
	var email, start, end string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your email or membership dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}

			var update client.UserUpdate
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("membership-start") {
				update.MembershipStartDate = &start
			}
			if cmd.Flags().Changed("membership-end") {
				update.MembershipEndDate = &end
			}

			user, err := e.api.UpdateUser(cmd.Context(), sess.UserID, update)
			if err != nil {
				return err
			}
			e.out.Print(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&start, "membership-start", "", "Membership start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "membership-end", "", "Membership end date (YYYY-MM-DD)")

	return cmd
}

func newProfilePhotoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <file>",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := e.requireSession()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			user, err := e.api.UploadPhoto(cmd.Context(), sess.UserID, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			if user.Photo != nil {
				next := *sess
				next.PhotoURL = *user.Photo
				if err := e.store.Save(&next); err != nil {
					return fmt.Errorf("failed to save session: %w", err)
				}
				e.sess = &next
			}
			e.out.Print(user)
			return nil
		},
	}
}
