package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/workload"
)

// NewListCommand creates the list (ls) command.
//
// The list command displays the workload catalog in a formatted table.
//
// Usage:
//
//	comfydock ls
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for listing workloads
func NewListCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List available workloads",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "WORKLOAD\tGPU\tAPP\tNODES\tMODELS\tDESCRIPTION")

			for _, spec := range workload.All() {
				info := spec.Info()
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					info.Workload, info.GPU, info.AppName,
					info.CustomNodes, info.ModelSources, info.Description)
			}

			return w.Flush()
		},
	}
}
