package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/api"
	"github.com/derickschaefer/eqviz/internal/config"
)

// Version is overwritten at build time:
//
//	go build -ldflags "-X github.com/derickschaefer/eqviz/cmd.Version=v0.2.0 \
//	  -X github.com/derickschaefer/eqviz/cmd.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "v0.1.0"
	BuildTime = ""
)

// userAgent is the User-Agent the API client sends, e.g. "eqviz-cli/0.1.0".
func userAgent() string {
	return "eqviz-cli/" + strings.TrimPrefix(Version, "v")
}

// versionInfo is what `eqviz version` reports. APIBase is the endpoint this
// build would talk to with the current flags, env and config.json.
type versionInfo struct {
	Version   string `json:"version"`
	UserAgent string `json:"user_agent"`
	APIBase   string `json:"api_base"`
	APISource string `json:"api_source"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	BuildTime string `json:"build_time,omitempty"`
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   Version,
		UserAgent: userAgent(),
		APIBase:   config.DefaultAPIBase,
		APISource: "default",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildTime: BuildTime,
	}
	if cfg, err := config.Load(globalFlags.APIBase); err == nil {
		info.APIBase = cfg.APIBase
		info.APISource = apiBaseSource(cfg)
	}
	return info
}

// apiBaseSource names the layer the resolved API base came from. Load has
// already merged .env into the environment.
func apiBaseSource(cfg *config.Config) string {
	switch {
	case globalFlags.APIBase != "":
		return "--api-base"
	case strings.TrimSpace(os.Getenv(config.EnvAPIBase)) != "":
		return config.EnvAPIBase
	case cfg.ConfigPath != "" && cfg.APIBase != config.DefaultAPIBase:
		return cfg.ConfigPath
	}
	return "default"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the eqviz build and the API it targets",
	Long: `Print the eqviz version, the User-Agent it sends and the API base URL it
would use with the current --api-base, EQVIZ_API_BASE and config.json.

Use --format json (or jsonl) for structured output.`,
	Example: `  eqviz version
  eqviz --api-base https://eq.example.com/api version
  eqviz version --format json | jq .api_base`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()
		out := cmd.OutOrStdout()

		switch globalFlags.Format {
		case "json", "jsonl":
			enc := json.NewEncoder(out)
			if globalFlags.Format == "json" {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(info)
		}

		rows := [][]string{
			{"eqviz", info.Version},
			{"user-agent", info.UserAgent},
			{"api", fmt.Sprintf("%s (%s)", info.APIBase, info.APISource)},
			{"go", info.GoVersion},
			{"os", info.Platform},
		}
		if info.BuildTime != "" {
			rows = append(rows, []string{"built", info.BuildTime})
		}
		printKVTable(out, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	api.UserAgent = userAgent()
}
