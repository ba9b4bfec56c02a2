package status

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal"
	"github.com/tinyland-inc/chibi-xmpp/pkg/config"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show bridge configuration and environment checks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := internal.GetConfigPath()
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading config %s: %w", path, err)
			}
			printStatus(cmd.OutOrStdout(), path, cfg)
			return nil
		},
	}
}

func printStatus(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(w, "chibi-xmpp %s\n\n", internal.FormatVersion())
	fmt.Fprintf(w, "Config:     %s\n", path)
	fmt.Fprintf(w, "Host:       %s (%s)\n", cfg.HostBinary, hostState(cfg.HostBinary))
	fmt.Fprintf(w, "FIFO:       %s (%s)\n", cfg.FIFOPath, fifoState(cfg.FIFOPath))
	fmt.Fprintf(w, "Contexts:   %s\n", cfg.ContextsDir())
	fmt.Fprintf(w, "Mappings:   %d\n", len(cfg.Mappings))
	if len(cfg.AllowFrom) == 0 {
		fmt.Fprintln(w, "Allow from: everyone")
	} else {
		fmt.Fprintf(w, "Allow from: %v\n", cfg.AllowFrom)
	}
}

func hostState(binary string) string {
	if _, err := exec.LookPath(binary); err != nil {
		return "not found"
	}
	return "ok"
}

func fifoState(path string) string {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return "missing"
	case err != nil:
		return err.Error()
	case info.Mode()&os.ModeNamedPipe == 0:
		return "not a fifo"
	default:
		return "ok"
	}
}
