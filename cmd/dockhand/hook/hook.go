// Package hookcmd wires the hook emitter into the CLI. This subcommand is
// the only part of dockhand that runs inside the proxy container.
package hookcmd

import (
	"fmt"
	"os"

	"dockhand/cmd/dockhand/ui"
	"dockhand/internal/hook"
	"dockhand/internal/marker"

	"github.com/spf13/cobra"
)

// Defaults inside the proxy container's /data volume, which the host can
// also see.
const (
	defaultDomainFile = "/data/cert-push/domain"
	defaultFlagFile   = "/data/cert-push/push-needed"
)

func Cmd() *cobra.Command {
	var (
		domainFile string
		domain     string
		flagFile   string
	)

	cmd := &cobra.Command{
		Use:   "hook [DOMAINS LINEAGE]",
		Short: "Renewal deploy hook: signal a pending certificate push",
		Long: `Invoked by the certificate tool after a renewal. DOMAINS is the
space-separated set of renewed identities, LINEAGE the directory holding the
new material. Without arguments the RENEWED_DOMAINS and RENEWED_LINEAGE
environment variables are used, as set by certbot deploy hooks.

When the target domain is among the renewed identities, the lineage path is
written into the flag file for the host-side push agent. No secrets are read
or written here.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domains := os.Getenv("RENEWED_DOMAINS")
			lineage := os.Getenv("RENEWED_LINEAGE")
			switch len(args) {
			case 0:
			case 2:
				domains, lineage = args[0], args[1]
			default:
				return fmt.Errorf("provide both DOMAINS and LINEAGE, or neither")
			}

			target := domain
			if target == "" {
				var err error
				if target, err = hook.LoadTarget(domainFile); err != nil {
					return err
				}
			}

			ev := hook.ParseEvent(domains, lineage)
			if !ev.Matches(target) {
				fmt.Println(ui.Muted(fmt.Sprintf("renewal does not cover %s, nothing to do", target)))
				return nil
			}

			if _, err := hook.Run(ev, target, marker.New(flagFile)); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("flagged %s for push (%s)", target, ev.Lineage))
			return nil
		},
	}

	cmd.Flags().StringVar(&domainFile, "domain-file", defaultDomainFile, "File holding the single target domain")
	cmd.Flags().StringVar(&domain, "domain", "", "Target domain (overrides --domain-file)")
	cmd.Flags().StringVar(&flagFile, "flag-file", defaultFlagFile, "Flag marker location")
	return cmd
}
