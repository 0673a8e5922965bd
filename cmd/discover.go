package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/grpc-plugin-framework/pkg/ui"
)

func NewDiscoverCmd() *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover plugins and show the system report",
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := initHost()
			if err != nil {
				return err
			}
			defer fw.Shutdown()

			ui.DisplayReport(cmd.OutOrStdout(), fw.Report())

			if showMetrics {
				families, err := fw.Metrics().Gather()
				if err != nil {
					return err
				}
				ui.DisplayMetrics(cmd.OutOrStdout(), families)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print framework counters after discovery")
	return cmd
}
