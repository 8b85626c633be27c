package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/spf13/cobra"
)

var loginSync bool

// loginCmd stores an access token so requests go to the server
var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store an access token and leave guest mode",
	Long: `Store an access token issued by the SerenityAI server.

Once a token is stored, requests go to the server. Pass --sync to upload
the chats and mood logs you recorded as a guest right away.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimSpace(args[0])
		if token == "" {
			return internal.ErrEmptyToken
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p := internal.NewProgress(cmd.ErrOrStderr())
		claims, err := internal.ParseTokenClaims(token)
		switch {
		case err != nil:
			p.Warning("Token is not a readable JWT; storing it anyway")
		case claims.Expired():
			p.Warning(fmt.Sprintf("Token expired at %s; the server will reject it", claims.ExpiresAt.Format("2006-01-02 15:04")))
		}

		if err := a.auth.Login(token); err != nil {
			return err
		}
		p.Success("Logged in")

		if !loginSync {
			return nil
		}
		userID := ""
		if claims != nil {
			userID = claims.Subject
		}
		return runSync(cmd, a, userID)
	},
}

// logoutCmd removes the stored token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token and return to guest mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.auth.Logout(); err != nil {
			return err
		}
		internal.NewProgress(cmd.ErrOrStderr()).Success("Logged out. Continuing in guest mode.")
		return nil
	},
}

// guestCmd prints the guest identity
var guestCmd = &cobra.Command{
	Use:   "guest",
	Short: "Show your guest id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.store.GuestID())
		if a.auth.IsAuthenticated() {
			internal.NewProgress(cmd.ErrOrStderr()).Warning("A login token is stored; requests go to the server")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, guestCmd)
	loginCmd.Flags().BoolVar(&loginSync, "sync", false, "Upload guest data after logging in")
}
