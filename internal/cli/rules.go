package cli

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [NAME]",
		Short: "List registered rules, or describe one",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			reg := a.Registry()

			if len(args) == 1 {
				schema, err := reg.Lookup(args[0])
				if err != nil {
					return err
				}
				view, err := viewRule(schema)
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), view)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
			for _, s := range reg.Schemas() {
				kind := "rule"
				if s.Toolchain {
					kind = "toolchain"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, kind, s.Doc)
			}
			return tw.Flush()
		},
	}
}

func newTargetsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List loaded targets",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}

			targets := a.Targets()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tRULE\tSOURCE")
			for _, label := range slices.Sorted(maps.Keys(targets)) {
				tgt := targets[label]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", label, tgt.Rule, tgt.Source)
			}
			return tw.Flush()
		},
	}
}
