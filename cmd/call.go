package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

func NewCallCmd() *cobra.Command {
	var minVersion uint32

	cmd := &cobra.Command{
		Use:   "call [plugin-uuid] [interface-uuid] [function] [json-payload]",
		Short: "Load a plugin interface and call one of its functions",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := api.ParsePluginID(args[0])
			if err != nil {
				return err
			}
			ifaceType, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid interface type %q: %w", args[1], err)
			}
			function := args[2]
			var payload []byte
			if len(args) == 4 {
				payload = []byte(args[3])
			}

			fw, err := initHost()
			if err != nil {
				return err
			}
			defer fw.Shutdown()

			iface, res := fw.LoadInterface(cmd.Context(), id, ifaceType, minVersion)
			if res.Failed() {
				return fmt.Errorf("cannot load interface %s of %s: %s", ifaceType, id, res)
			}
			defer fw.UnloadInterface(id, iface)

			out, err := iface.Call(cmd.Context(), function, payload)
			if err != nil {
				return fmt.Errorf("call failed: %w", err)
			}
			if len(out) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&minVersion, "min-version", 1, "oldest acceptable interface version")
	return cmd
}
