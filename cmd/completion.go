package cmd

import (
	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/render"
	"github.com/derickschaefer/eqviz/internal/store"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for eqviz.

Besides subcommands, the scripts complete --format values, config keys,
cache bucket names and summary chart styles.

  source <(eqviz completion bash)
  source <(eqviz completion zsh)
  eqviz completion fish | source`,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		default:
			return root.GenPowerShellCompletionWithDesc(out)
		}
	},
}

// fixedValues completes a flag or argument from a static list.
func fixedValues(vals ...string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return vals, cobra.ShellCompDirectiveNoFileComp
	}
}

func init() {
	rootCmd.AddCommand(completionCmd)

	_ = rootCmd.RegisterFlagCompletionFunc("format", fixedValues(render.Formats...))
	_ = cacheClearCmd.RegisterFlagCompletionFunc("bucket", fixedValues(store.AllBuckets...))
	_ = summaryCmd.RegisterFlagCompletionFunc("chart", fixedValues("bar", "none"))
	_ = uploadCmd.RegisterFlagCompletionFunc("chart", fixedValues("bar", "none"))
	configSetCmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return configKeys, cobra.ShellCompDirectiveNoFileComp
		}
		if args[0] == "default_format" {
			return render.Formats, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
