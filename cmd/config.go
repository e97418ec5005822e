package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/config"
	"github.com/derickschaefer/eqviz/internal/render"
)

// configKeys lists the keys accepted by `config set`, in display order.
var configKeys = []string{"api_base", "default_format", "timeout", "rate", "db_path", "listen"}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage eqviz configuration",
	Long: `Read and write eqviz configuration stored in config.json.

Credentials are never stored; pass them per invocation.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit api_base to point at your server, or set "+config.EnvAPIBase+".")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.APIBase)
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		format := cfg.Format
		if globalFlags.Format != "" {
			format = globalFlags.Format
		}

		if format == render.FormatJSON {
			type configOut struct {
				APIBase    string  `json:"api_base"`
				APIHost    string  `json:"api_host"`
				Format     string  `json:"default_format"`
				Timeout    string  `json:"timeout"`
				Rate       float64 `json:"rate"`
				DBPath     string  `json:"db_path"`
				Listen     string  `json:"listen"`
				ConfigFile string  `json:"config_file"`
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				APIBase:    cfg.APIBase,
				APIHost:    cfg.APIHost(),
				Format:     cfg.Format,
				Timeout:    cfg.Timeout.String(),
				Rate:       cfg.Rate,
				DBPath:     cfg.DBPath,
				Listen:     cfg.Listen,
				ConfigFile: src,
			})
		}

		printKVTable(cmd.OutOrStdout(), [][]string{
			{"api_base", cfg.APIBase},
			{"api_host", cfg.APIHost()},
			{"default_format", cfg.Format},
			{"timeout", cfg.Timeout.String()},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"db_path", cfg.DBPath},
			{"listen", cfg.Listen},
			{"config_file", src},
		})
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		f := config.Template()
		if existing, err := config.ReadFile(path); err == nil {
			f = *existing
		} else if !os.IsNotExist(err) {
			return err
		}

		key := strings.ToLower(args[0])
		if err := setConfigKey(&f, key, args[1]); err != nil {
			return err
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

// setConfigKey validates val and stores it under key in f.
func setConfigKey(f *config.File, key, val string) error {
	switch key {
	case "api_base":
		candidate := config.Config{APIBase: val}
		if err := candidate.Validate(); err != nil {
			return err
		}
		f.APIBase = val
	case "default_format", "format":
		if !render.ValidFormat(val) {
			return fmt.Errorf("unknown format %q (valid: %v)", val, render.Formats)
		}
		f.DefaultFormat = val
	case "timeout":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("timeout must be a duration such as 30s: %w", err)
		}
		f.Timeout = val
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("rate must be a positive number")
		}
		f.Rate = r
	case "db_path":
		f.DBPath = val
	case "listen":
		f.Listen = val
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
