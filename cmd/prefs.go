package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/spf13/cobra"
)

// prefsCmd groups the preference commands
var prefsCmd = &cobra.Command{
	Use:     "prefs",
	Aliases: []string{"preferences"},
	Short:   "Read and change your preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print your preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		prefs, err := fetchPreferences(cmd, a)
		if err != nil {
			return err
		}
		printPreferences(cmd, prefs)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:     "set <key=value>...",
	Short:   "Change one or more preferences",
	Example: `  serenity-guest prefs set theme=dark reminders=true`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := parseAssignments(args)
		if err != nil {
			return err
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		prefs, err := fetchPreferences(cmd, a)
		if err != nil {
			return err
		}
		for k, v := range updates {
			prefs[k] = v
		}

		resp, err := a.client.Put(cmd.Context(), "/user/preferences", prefs)
		if err != nil {
			return userError(err)
		}
		saved := internal.Preferences{}
		if err := resp.Decode(&saved); err != nil || len(saved) == 0 {
			saved = prefs
		}
		printPreferences(cmd, saved)
		return nil
	},
}

func fetchPreferences(cmd *cobra.Command, a *app) (internal.Preferences, error) {
	resp, err := a.client.Get(cmd.Context(), "/user/preferences", nil)
	if err != nil {
		return nil, userError(err)
	}
	prefs := internal.Preferences{}
	if err := resp.Decode(&prefs); err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = internal.Preferences{}
	}
	return prefs, nil
}

// parseAssignments reads key=value pairs. Values that parse as JSON keep
// their type; anything else is a string.
func parseAssignments(args []string) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		updates[key] = v
	}
	return updates, nil
}

func printPreferences(cmd *cobra.Command, prefs internal.Preferences) {
	out := cmd.OutOrStdout()
	if len(prefs) == 0 {
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render("No preferences set"))
		return
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := json.Marshal(prefs[k])
		if err != nil {
			v = []byte(fmt.Sprint(prefs[k]))
		}
		if s, ok := prefs[k].(string); ok {
			v = []byte(s)
		}
		_, _ = fmt.Fprintf(out, "%s=%s\n", k, v)
	}
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd)
}
