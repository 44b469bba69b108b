// Package statuscmd shows the last push-agent run for human eyes; the
// JSON artifact itself stays the monitoring contract.
package statuscmd

import (
	"fmt"
	"time"

	"dockhand/cmd/dockhand/ui"
	"dockhand/config"
	"dockhand/internal/status"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last push-agent run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			st, err := status.Read(cfg.StatusPath())
			if err != nil {
				return fmt.Errorf("no run recorded yet: %w", err)
			}

			fmt.Println(ui.KeyValues("  ",
				ui.KV("Last run", st.Timestamp.Format(time.RFC3339)),
				ui.KV("Success", ui.Bool(st.Success)),
				ui.KV("Message", st.Message),
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath, "Host-side agent configuration")
	return cmd
}
