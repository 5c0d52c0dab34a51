package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRegistryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the framework, model, and instance registries",
	}

	cmd.AddCommand(newRegistryFrameworksCommand())
	cmd.AddCommand(newRegistryModelsCommand())
	cmd.AddCommand(newRegistryInstancesCommand())
	cmd.AddCommand(newRegistryShowCommand())

	return cmd
}

func newRegistryFrameworksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List registered frameworks and versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range app.store.FrameworkNames() {
				for _, version := range app.store.FrameworkVersions(name) {
					fw := app.store.LookupFramework(name, version)
					fmt.Fprintf(out, "%s %s\t%s\t%s\n", name, version, fw.Accelerator.Type, fw.ValidationLevel)
				}
			}
			return nil
		},
	}
}

func newRegistryModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models and patterns in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range app.store.Models() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", m.ID, m.Family, m.ValidationLevel)
			}
			return nil
		},
	}
}

func newRegistryInstancesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List registered instance types",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range app.store.InstanceTypes() {
				inst := app.store.LookupInstance(t)
				fmt.Fprintf(out, "%s\t%s\t%s\t%d vCPU\n", inst.Type, inst.Accelerator.Type, inst.Memory, inst.VCPUs)
			}
			return nil
		},
	}
}

func newRegistryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <framework> <version>",
		Short: "Show one framework entry in full",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			fw := app.store.LookupFramework(args[0], args[1])
			if fw == nil {
				return fmt.Errorf("framework %s %s is not in the registry", args[0], args[1])
			}

			encoded, err := json.MarshalIndent(fw, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
	return cmd
}
