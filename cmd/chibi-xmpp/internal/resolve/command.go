package resolve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/chibi-xmpp/cmd/chibi-xmpp/internal"
	"github.com/tinyland-inc/chibi-xmpp/pkg/inbox"
)

func NewResolveCommand() *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "resolve <jid>",
		Short: "Show the context a JID is delivered to",
		Args:  cobra.ExactArgs(1),
		Example: `  chibi-xmpp resolve alice@example.org
  chibi-xmpp resolve --path room@conference.example.org/nick`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			name := cfg.ContextFor(args[0])
			if !showPath {
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			}
			store := inbox.NewStore(cfg.ContextsDir(), cfg.LockTimeout())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, store.Path(name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showPath, "path", "p", false, "Also print the inbox file path")

	return cmd
}
