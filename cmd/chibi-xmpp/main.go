// chibi-xmpp - XMPP transport plugin for the chibi agent host
// License: MIT
//
// Copyright (c) 2026 chibi-xmpp contributors

// chibi-xmpp bridges mcabber and the chibi agent host.
//
// The same binary serves four callers: the host asking for the plugin
// schema, the host firing a hook, the host calling the xmpp_send tool, and
// mcabber's eventcmd reporting a message. Everything that is not one of
// the subcommands below is handed to the dispatcher unparsed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal"
	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal/migrate"
	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal/resolve"
	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal/status"
	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal/version"
	"github.com/tinyland-inc/chibi-xmpp/pkg/bridge"
	"github.com/tinyland-inc/chibi-xmpp/pkg/dispatch"
)

// NewChibiXMPPCommand builds the root command. The dispatcher's exit code
// is stored in exitCode.
func NewChibiXMPPCommand(d *dispatch.Dispatcher, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chibi-xmpp",
		Short: "XMPP transport plugin for chibi, driven by mcabber",
		Long: `chibi-xmpp is started by chibi and by mcabber, never by hand:

  chibi-xmpp --schema                       print the plugin schema
  CHIBI_HOOK=pre_send_message chibi-xmpp    deliver an xmpp: message
  CHIBI_TOOL_ARGS='{...}' chibi-xmpp        run the xmpp_send tool
  chibi-xmpp MSG IN <jid> <file>            queue an incoming message`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = d.Run(cmd.Context(), dispatch.Invocation{
				Args:   args,
				Env:    os.LookupEnv,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.AddCommand(
		migrate.NewMigrateCommand(),
		resolve.NewResolveCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := bridge.ExitOK
	cmd := NewChibiXMPPCommand(dispatch.New(internal.LoadConfig), &exitCode)
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		exitCode = bridge.ExitFailure
	}

	stop()
	os.Exit(exitCode)
}
