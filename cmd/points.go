package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// pointsCmd shows or adds wellness points
var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Show or add wellness points",
}

// pointsView accepts both the guest and the server shape of the points payload
type pointsView struct {
	Points int `json:"points"`
	Level  int `json:"level"`
}

var pointsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your wellness points and level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.Get(cmd.Context(), "/gamification/points", nil)
		if err != nil {
			return userError(err)
		}
		var view pointsView
		if err := resp.Decode(&view); err != nil {
			return err
		}
		if view.Level == 0 {
			view.Level = view.Points/100 + 1
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Points:"), countStyle.Render(strconv.Itoa(view.Points)))
		_, _ = fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Level: "), countStyle.Render(strconv.Itoa(view.Level)))
		return nil
	},
}

var pointsAddCmd = &cobra.Command{
	Use:   "add <points>",
	Short: "Add wellness points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("points must be a positive whole number, got %q", args[0])
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.Post(cmd.Context(), "/gamification/points", map[string]int{"points": n})
		if err != nil {
			return userError(err)
		}

		var result struct {
			Points json.Number `json:"points"`
		}
		_ = resp.Decode(&result)
		msg := fmt.Sprintf("✓ Added %d point(s)", n)
		if result.Points != "" {
			msg += fmt.Sprintf(", total %s", result.Points)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(msg))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pointsCmd)
	pointsCmd.AddCommand(pointsShowCmd, pointsAddCmd)
}
