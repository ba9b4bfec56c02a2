package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal"
	"github.com/tinyland-inc/chibi-xmpp/pkg/migrate"
)

func NewMigrateCommand() *cobra.Command {
	var opts migrate.ToYAMLOptions

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Fold the legacy mappings file into a YAML config",
		Args:  cobra.NoArgs,
		Example: `  chibi-xmpp migrate --dry-run
  chibi-xmpp migrate --config ~/.chibi/xmpp-bridge.json
  chibi-xmpp migrate --output ~/.chibi/xmpp-bridge.yaml --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.ConfigPath == "" {
				opts.ConfigPath = internal.GetConfigPath()
			}
			opts.Out = cmd.OutOrStdout()

			result, err := migrate.RunToYAML(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !opts.DryRun {
				fmt.Fprintf(out, "YAML config written to %s\n", result.OutputPath)
			}
			if len(result.Warnings) > 0 {
				fmt.Fprintln(out, "\nWarnings:")
				for _, w := range result.Warnings {
					fmt.Fprintf(out, "  - %s\n", w)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "",
		"Source config path (default: $CHIBI_XMPP_CONFIG or ~/.chibi/xmpp-bridge.json)")
	cmd.Flags().StringVar(&opts.OutputPath, "output", "",
		"YAML output path (default: same dir as input, .yaml extension)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false,
		"Print generated YAML without writing")
	cmd.Flags().BoolVar(&opts.Force, "force", false,
		"Overwrite existing output file")

	return cmd
}
