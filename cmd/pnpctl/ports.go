package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/arloliu/go-pnp/transport"
	"github.com/spf13/cobra"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := transport.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUSB\tVID:PID\tSERIAL\tPRODUCT")
			for _, p := range ports {
				ids := "-"
				if p.IsUSB {
					ids = p.VID + ":" + p.PID
				}
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", p.Name, p.IsUSB, ids, p.SerialNumber, p.Product)
			}

			return w.Flush()
		},
	}
}
