// Package pushcmd wires the host-side push agent into the CLI. Meant to be
// invoked from cron every few minutes; with no flag marker present it is a
// silent no-op, so overlapping or redundant invocations are harmless.
package pushcmd

import (
	"context"
	"log/slog"

	"dockhand/config"
	"dockhand/internal/logging"
	"dockhand/internal/marker"
	"dockhand/internal/pathmap"
	"dockhand/internal/push"
	"dockhand/internal/syno"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var (
		cfgPath string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a renewed certificate to the NAS when flagged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			// Re-install logging with the configured file sink so cron
			// runs leave a trace.
			level := logging.LevelInfo
			if debug, _ := cmd.Root().PersistentFlags().GetBool("debug"); debug {
				level = logging.LevelDebug
			}
			if err := logging.ConfigureWithFile(level, cfg.LogFile); err != nil {
				return err
			}

			if config.Loose(cfgPath) {
				slog.Warn("Config file is readable by group or world; it holds NAS credentials.", "path", cfgPath)
			}
			if dryRun {
				slog.Info("Dry run, neither the NAS nor the flag marker will be modified.")
			}

			rule, err := pathmap.NewRule(cfg.ContainerCertRoot, cfg.HostCertRoot)
			if err != nil {
				return err
			}

			agent := &push.Agent{
				Config: cfg,
				Marker: marker.New(cfg.FlagFile),
				Rule:   rule,
				DryRun: dryRun,
				Dial: func(context.Context) (push.Manager, error) {
					opts := []syno.ClientOption{syno.WithTimeout(cfg.APITimeout())}
					if cfg.Insecure() {
						opts = append(opts, syno.WithInsecureTLS())
					}
					return syno.NewClient(cfg.Host, cfg.Port, opts...)
				},
			}
			return agent.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath, "Host-side agent configuration")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate config and resolve the target record without uploading or clearing the flag")
	return cmd
}
