package main

import (
	"fmt"
	"math"

	"github.com/arloliu/go-pnp/head"
	"github.com/arloliu/go-pnp/location"
	"github.com/spf13/cobra"
)

func newHomeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Run the homing cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				if err := s.driver.Home(cmd.Context()); err != nil {
					return err
				}

				return printLocation(cmd, s.driver, head.N1)
			})
		},
	}
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	var (
		nozzle     string
		units      string
		x, y, z, c float64
	)

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a nozzle; axes without a flag keep their position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := head.ParseNozzleID(nozzle)
			if err != nil {
				return err
			}
			u, err := location.ParseUnit(units)
			if err != nil {
				return err
			}

			target := location.Unspecified()
			target.Units = u
			flags := cmd.Flags()
			if flags.Changed("x") {
				target.X = x
			}
			if flags.Changed("y") {
				target.Y = y
			}
			if flags.Changed("z") {
				target.Z = z
			}
			if flags.Changed("c") {
				target.C = c
			}

			return opts.withSession(cmd, func(s *session) error {
				if err := s.driver.MoveTo(cmd.Context(), n, target); err != nil {
					return err
				}

				return printLocation(cmd, s.driver, n)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&nozzle, "nozzle", "N1", "nozzle to move (N1..N4)")
	f.StringVar(&units, "units", "mm", "length unit of x, y and z")
	f.Float64Var(&x, "x", math.NaN(), "target X")
	f.Float64Var(&y, "y", math.NaN(), "target Y")
	f.Float64Var(&z, "z", math.NaN(), "target Z")
	f.Float64Var(&c, "c", math.NaN(), "target rotation in degrees")

	return cmd
}

func printLocation(cmd *cobra.Command, d *head.Driver, n head.NozzleID) error {
	loc, err := d.Location(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", n, loc)

	return nil
}
