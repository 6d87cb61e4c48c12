package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/spf13/cobra"
)

func newMaterialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Inspect and create material mapping tables",
	}

	checkCmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a mapping table and list its rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := material.LoadRules(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SHADER\tBASE COLOR\tMETALLIC\tROUGHNESS\tGLASS\tCUTOUT")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n",
					r.ShaderName, r.BaseColorValue, r.MetallicRange, r.RoughnessRange, r.IsGlass, r.IsCutout)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rules OK\n", len(rules))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default mapping table (.yaml, .yml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := refuseOverwrite(args[0], force); err != nil {
				return err
			}
			if err := material.SaveTable(args[0], material.NewTable(material.DefaultRules()...)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(checkCmd, initCmd)
	return cmd
}
