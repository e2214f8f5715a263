package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rafcdn/internal/logging"
	"rafcdn/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the stored session",
	}
	sessionCmd.AddCommand(newSessionSetCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	return sessionCmd
}

func newSessionSetCommand(ctx *commandContext) *cobra.Command {
	var id, username, role string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the session issued by the login page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(id) == "" {
				return errors.New("--id is required")
			}
			store, err := ctx.sessionStore()
			if err != nil {
				return err
			}
			sess := session.Session{
				ID:       strings.TrimSpace(id),
				Username: strings.TrimSpace(username),
				Role:     strings.TrimSpace(role),
			}
			if err := store.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session saved to %s\n", store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Session id")
	cmd.Flags().StringVar(&username, "username", "", "Username shown in output")
	cmd.Flags().StringVar(&role, "role", "user", "Account role")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.requireSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			username := sess.Username
			if username == "" {
				username = "(unknown)"
			}
			fmt.Fprintf(out, "Username: %s\n", username)
			fmt.Fprintf(out, "Role:     %s\n", sess.Role)
			fmt.Fprintf(out, "Session:  %s\n", maskSecret(sess.ID))
			return nil
		},
	}
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.sessionStore()
			if err != nil {
				return err
			}
			sess, loadErr := store.Load()
			if loadErr == nil {
				if err := ctx.backendClient(sess).Logout(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
					logging.WarnWithContext(ctx.log(), "server logout failed", "logout_failed",
						"the local session is cleared regardless",
						logging.Error(err),
					)
				}
			}
			// The local session goes away whatever the server said.
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-4)
}
