package cli

import (
	"fmt"

	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/spf13/cobra"
)

func newResolveCommand(o *options) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "resolve LABEL...",
		Short: "Resolve targets and print their instances",
		Example: `  ruleforge resolve //app:main
  ruleforge resolve --platform-file linux.yaml --metrics lib bin`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}

			insts, err := a.ResolveAll(cmd.Context(), args...)
			if err != nil {
				return err
			}

			views := make([]instanceView, len(insts))
			for i, inst := range insts {
				if views[i], err = viewInstance(args[i], inst); err != nil {
					return err
				}
			}
			if err := writeYAML(cmd.OutOrStdout(), views); err != nil {
				return err
			}

			if showMetrics {
				return writeMetrics(cmd.ErrOrStderr(), a.Metrics())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print resolver metrics to stderr after resolving.")
	return cmd
}

func newProvidersCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers LABEL",
		Short: "Print every provider of a resolved target",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			inst, err := a.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), viewProviders(inst.Providers()))
		},
	}
}

func newPlatformCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Print the execution platform targets resolve for",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			p := platform.Host()
			if cfg.PlatformFile != "" {
				if p, err = platform.LoadFile(cfg.PlatformFile); err != nil {
					return err
				}
			}
			if err := writeYAML(cmd.OutOrStdout(), p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "# canonical: %s\n", p.Canonical())
			return err
		},
	}
}
