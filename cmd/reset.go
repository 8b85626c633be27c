package cmd

import (
	"fmt"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/spf13/cobra"
)

var resetConfirm bool

// resetCmd clears all guest data
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all guest data stored on this machine",
	Long: `Delete guest chats, mood logs, points, peer messages and preferences.

The guest id and any login token are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to delete guest data without --yes")
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.ClearAll(); err != nil {
			return &internal.StorageError{Backend: a.cfg.Backend, Op: "reset", Err: err}
		}
		internal.NewProgress(cmd.ErrOrStderr()).Success("Guest data deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetConfirm, "yes", "y", false, "Confirm deletion")
}
