// Package overlaycmd wires the layer disk-usage reporter into the CLI.
package overlaycmd

import (
	"fmt"
	"os"

	"dockhand/cmd/dockhand/ui"
	"dockhand/internal/overlay"

	"github.com/docker/docker/client"
	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var (
		top          int
		minSize      string
		pathOverride string
	)

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Report layer storage disk usage mapped to containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			min, err := units.RAMInBytes(minSize)
			if err != nil {
				return fmt.Errorf("parse --min-size: %w", err)
			}

			if os.Geteuid() != 0 {
				fmt.Println(ui.WarnMsg("not running as root, sizes may be incomplete"))
			}

			cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
			if err != nil {
				return fmt.Errorf("connect to docker engine: %w", err)
			}
			defer cli.Close()

			rep, err := overlay.Build(cmd.Context(), cli, overlay.Options{
				Top:     top,
				MinSize: min,
				Root:    pathOverride,
			})
			if err != nil {
				return err
			}

			render(rep)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 20, "Show at most N directories")
	cmd.Flags().StringVar(&minSize, "min-size", "100MiB", "Hide directories below this size")
	cmd.Flags().StringVar(&pathOverride, "path", "", "Override the layer storage path")
	return cmd
}

func render(rep *overlay.Report) {
	pairs := []ui.Pair{
		ui.KV("Driver", rep.Driver),
		ui.KV("Mode", rep.Flavor.String()),
		ui.KV("Path", rep.Root),
		ui.KV("Scanned", units.BytesSize(float64(rep.Scanned))),
	}
	if rep.Capacity > 0 {
		pairs = append(pairs, ui.KV("Filesystem", fmt.Sprintf("%s used of %s",
			units.BytesSize(float64(rep.Capacity-rep.Free)),
			units.BytesSize(float64(rep.Capacity)))))
	}
	fmt.Println(ui.KeyValues("  ", pairs...))

	if len(rep.Rows) == 0 {
		fmt.Println(ui.Muted("no layer directories above the size threshold"))
		return
	}

	rows := make([][]string, len(rep.Rows))
	for i, row := range rep.Rows {
		size := units.BytesSize(float64(row.Size))
		if row.Owner != nil {
			name := row.Owner.Name
			if row.Init {
				name += " (init)"
			}
			rows[i] = []string{size, row.Owner.ShortID(), row.Owner.State, name, row.Owner.Image}
			continue
		}
		layer := row.Layer
		if len(layer) > 12 {
			layer = layer[:12]
		}
		rows[i] = []string{size, layer, "-", ui.Muted("image layer / build cache"), "-"}
	}
	fmt.Println(ui.Table([]string{"Size", "Container", "Status", "Name", "Image"}, rows))

	fmt.Println(ui.Muted(fmt.Sprintf("%d unmatched = image layers, build cache, or dangling data", rep.Unmatched)))
}
