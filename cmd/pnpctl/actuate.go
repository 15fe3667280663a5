package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newActuateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "actuate NAME VALUE",
		Short: "Drive an actuator: on, off or a value 0..255",
		Long:  `Actuator names are N1-Air..N4-Air, Lights-Down and Lights-Up.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, raw := args[0], strings.ToLower(args[1])

			return opts.withSession(cmd, func(s *session) error {
				if _, ok := s.driver.Actuator(name); !ok {
					return fmt.Errorf("unknown actuator %q", name)
				}

				switch raw {
				case "on", "true":
					return s.driver.Actuate(cmd.Context(), name, true)
				case "off", "false":
					return s.driver.Actuate(cmd.Context(), name, false)
				}

				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: want on, off or a number", args[1])
				}

				return s.driver.ActuateValue(cmd.Context(), name, v)
			})
		},
	}
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read NAME",
		Short: "Read an actuator's sensor value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				v, ok, err := s.driver.ReadActuator(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(args[0] + " has no readable value")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], v)

				return nil
			})
		},
	}
}
