package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/spf13/cobra"
)

var syncUserID string

// syncCmd uploads guest data to the logged-in account
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload guest chats and mood logs to your account",
	Long: `Upload the chat sessions and mood logs recorded in guest mode.

Requires a stored login token. Local guest data is cleared only after
every upload succeeded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		return runSync(cmd, a, syncUserID)
	},
}

// runSync uploads guest data for userID, defaulting to the token's subject
func runSync(cmd *cobra.Command, a *app, userID string) error {
	if userID == "" {
		if claims, err := a.auth.Claims(); err == nil {
			userID = claims.Subject
		}
	}

	p := internal.NewProgress(cmd.ErrOrStderr())
	var result internal.SyncResult
	err := p.Run(cmd.Context(), "Uploading guest data", func() error {
		result = a.client.SyncGuestData(cmd.Context(), userID)
		return result.Err
	})
	if err != nil {
		if errors.Is(err, api.ErrNotAuthenticated) {
			return userError(err)
		}
		var syncErr *internal.SyncError
		if errors.As(err, &syncErr) {
			return fmt.Errorf("sync failed at %s: %s", syncErr.Endpoint, api.UserMessage(syncErr.Err))
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
		"✓ Synced %d chat session(s) and %d mood log(s)", result.SessionsSynced, result.LogsSynced)))
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncUserID, "user", "", "Account id to sync to (default: the token's subject)")
}
