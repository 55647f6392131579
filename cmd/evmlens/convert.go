package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evmlens/internal/convert"
)

func newUnitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units VALUE",
		Short: "Convert a value between wei, gwei and ether",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromName, _ := cmd.Flags().GetString("from")
			toName, _ := cmd.Flags().GetString("to")
			from, err := convert.ParseUnit(fromName)
			if err != nil {
				return err
			}
			to, err := convert.ParseUnit(toName)
			if err != nil {
				return err
			}
			out, err := convert.ConvertValueUnits(args[0], from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("from", "ether", "source unit (wei, gwei, ether)")
	cmd.Flags().String("to", "wei", "target unit (wei, gwei, ether)")
	return cmd
}

func newBaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base VALUE",
		Short: "Convert an integer between hex, decimal and binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromName, _ := cmd.Flags().GetString("from")
			toName, _ := cmd.Flags().GetString("to")
			from, err := convert.ParseBase(fromName)
			if err != nil {
				return err
			}
			to, err := convert.ParseBase(toName)
			if err != nil {
				return err
			}
			out, err := convert.ConvertBase(args[0], from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("from", "hex", "source base (hex, decimal, binary)")
	cmd.Flags().String("to", "decimal", "target base (hex, decimal, binary)")
	return cmd
}

func newASCIICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ascii HEX",
		Short: "Render hex bytes as ASCII",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := convert.BytesToASCII(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
