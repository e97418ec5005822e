package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/web"
)

var (
	serveListen    string
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser client on a local address",
	Long: `Serve a single-page browser client backed by the same view state as the
CLI: a credentials form, CSV upload, the latest summary with a pie chart of the
equipment type distribution, and the recent upload history with report links.

Credentials passed with --username and --password are applied at startup and
history is loaded straight away. They can also be entered in the page. They
are held in memory only.`,
	Example: `  eqviz serve
  eqviz --username ops --password secret serve --listen 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		listen := deps.Config.Listen
		if serveListen != "" {
			listen = serveListen
		}

		if err := applyCredentials(deps); err != nil {
			return err
		}
		if err := deps.Controller.Mount(cmd.Context()); err != nil {
			slog.Warn("initial history load failed", "err", err)
		}

		srv := web.New(web.Options{
			Listen:    listen,
			APIHost:   deps.Client.APIHost(),
			AccessLog: serveAccessLog || globalFlags.Debug,
		}, deps.Controller)

		status("Serving eqviz on http://%s (API %s)", listen, deps.Client.BaseURL())
		if err := srv.Run(cmd.Context()); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default: config listen, 127.0.0.1:8080)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", false, "log every HTTP request")
}
