package cmd

import (
	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd runs the local gateway
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guest router over HTTP",
	Long: `Serve the guest router on a local address so a browser client can use
it as its API base. Requests under /api/ are answered locally in guest
mode and forwarded to the server once logged in.

Endpoints:
  /api/...   guest-routed API
  /healthz   gateway health and mode
  /metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		a, err := openApp(reg)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := listenAddr
		if addr == "" {
			addr = a.cfg.Listen
		}
		internal.LogInfo("Serving guest gateway on http://%s (mode: %s)", addr, modeName(a))
		srv := gateway.NewServer(a.client, reg)
		if a.cfg.RateLimit > 0 {
			srv.SetRateLimit(a.cfg.RateLimit, int(a.cfg.RateLimit*2))
			internal.LogDebug("Limiting /api/ to %g request(s) per second", a.cfg.RateLimit)
		}
		return srv.Run(cmd.Context(), addr)
	},
}

func modeName(a *app) string {
	if a.auth.IsAuthenticated() {
		return "authenticated"
	}
	return "guest"
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")
}
