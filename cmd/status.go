package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/spf13/cobra"
)

var statusPing bool

// statusCmd reports configuration, identity and stored guest data
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"healthcheck"},
	Short:   "Show mode, storage and what guest data is stored",
	Long: `Show the current mode, where guest data is stored and how much of it
there is. Pass --ping to also check that the server is reachable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg := appConfig

		_, _ = fmt.Fprintln(out, headerStyle.Render("SerenityAI guest status"))
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, sectionStyle.Render("Configuration"))
		configSource := cfg.ConfigFile
		if configSource == "" {
			configSource = "defaults"
		}
		statusLine(out, "Config", configSource)
		statusLine(out, "API", cfg.APIURL)
		statusLine(out, "Timeout", cfg.Timeout.String())
		statusLine(out, "Demo mode", strconv.FormatBool(cfg.Demo))
		storage := cfg.Storage
		if strings.EqualFold(cfg.Backend, internal.BackendRedis) {
			storage = cfg.RedisURL
		}
		statusLine(out, "Storage", fmt.Sprintf("%s (%s)", cfg.Backend, storage))
		_, _ = fmt.Fprintln(out)

		a, err := openApp(nil)
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("✗ Storage unavailable"))
			return err
		}
		defer a.Close()

		_, _ = fmt.Fprintln(out, sectionStyle.Render("Identity"))
		statusLine(out, "Guest id", a.store.GuestID())
		if a.auth.IsAuthenticated() {
			statusLine(out, "Mode", successStyle.Render("logged in"))
			claims, err := a.auth.Claims()
			switch {
			case err != nil:
				statusLine(out, "Token", warningStyle.Render("not a readable JWT"))
			case claims.Expired():
				statusLine(out, "Token", warningStyle.Render("expired "+claims.ExpiresAt.Format("2006-01-02 15:04")))
			default:
				if claims.Subject != "" {
					statusLine(out, "User", claims.Subject)
				}
				if !claims.ExpiresAt.IsZero() {
					statusLine(out, "Expires", claims.ExpiresAt.Format("2006-01-02 15:04"))
				}
			}
		} else {
			statusLine(out, "Mode", infoStyle.Render("guest"))
		}
		_, _ = fmt.Fprintln(out)

		snap := a.store.Snapshot()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("Guest data"))
		statusLine(out, "Chat exchanges", countStyle.Render(strconv.Itoa(len(snap.ChatSessions))))
		statusLine(out, "Messages", countStyle.Render(strconv.Itoa(snap.MessageCount())))
		statusLine(out, "Mood logs", countStyle.Render(strconv.Itoa(len(snap.MoodLogs))))
		statusLine(out, "Peer groups", countStyle.Render(strconv.Itoa(len(snap.PeerMessages))))
		statusLine(out, "Points", countStyle.Render(fmt.Sprintf("%d (level %d)", snap.WellnessPoints.Points, snap.WellnessPoints.Level())))

		if !statusPing {
			return nil
		}
		_, _ = fmt.Fprintln(out)
		err = internal.NewProgress(cmd.ErrOrStderr()).Run(cmd.Context(), "Checking "+a.client.BaseURL(), func() error {
			return a.client.Ping(cmd.Context())
		})
		if err != nil && !errors.Is(err, api.ErrNoHealthCheck) {
			return userError(err)
		}
		return nil
	},
}

func statusLine(out io.Writer, label, value string) {
	_, _ = fmt.Fprintf(out, "  %-16s %s\n", label+":", value)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "Check that the server is reachable")
}
