package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/registry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

func newValidateCommand() *cobra.Command {
	var (
		framework    string
		fwVersion    string
		instanceType string
		profile      string
		envOverrides map[string]string
		noKnownFlags bool
		noCommunity  bool
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration without generating anything",
		Long: `Validate a framework/instance/environment combination against the
registries and the validation strategy pipeline, without touching any files.

With --watch, the command stays running and re-validates whenever a registry
override file changes.`,
		Example: `  # Check an instance type against a framework
  mlcc validate --framework vllm --framework-version 0.4.0 \
    --instance-type ml.g5.xlarge

  # Check environment variables too
  mlcc validate --framework vllm --framework-version 0.4.0 \
    --instance-type ml.g5.xlarge --env VLLM_MAX_MODEL_LEN=4096

  # Re-validate on registry override changes
  mlcc validate --framework vllm --framework-version 0.4.0 \
    --instance-type ml.g5.xlarge --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}

			eng, err := buildValidationEngine(app)
			if err != nil {
				return err
			}

			opts := validation.Options{
				Enabled:             true,
				UseKnownFlags:       !noKnownFlags,
				UseCommunityReports: !noCommunity,
			}

			runOnce := func(store *registry.Store) error {
				return validateOnce(cmd, store, eng, opts,
					framework, fwVersion, profile, instanceType, envOverrides)
			}

			if err := runOnce(app.store); err != nil {
				if !watch {
					return err
				}
				app.logger.WithError(err).Warn("Validation failed")
			}

			if !watch {
				return nil
			}
			if app.cfg.Registry.OverrideDir == "" {
				return fmt.Errorf("--watch requires a registry override directory (registry.override_dir)")
			}

			if err := app.loader.Watch(cmd.Context(), app.cfg.Registry.OverrideDir, func(store *registry.Store) error {
				if err := runOnce(store); err != nil {
					app.logger.WithError(err).Warn("Validation failed")
				}
				return nil
			}); err != nil {
				return err
			}

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "serving framework name")
	cmd.Flags().StringVar(&fwVersion, "framework-version", "", "serving framework version")
	cmd.Flags().StringVar(&profile, "profile", "", "configuration profile name")
	cmd.Flags().StringVar(&instanceType, "instance-type", "", "SageMaker instance type")
	cmd.Flags().StringToStringVar(&envOverrides, "env", nil, "environment variables to validate (KEY=VALUE)")
	cmd.Flags().BoolVar(&noKnownFlags, "no-known-flags", false, "skip the known-flags strategy")
	cmd.Flags().BoolVar(&noCommunity, "no-community-reports", false, "skip the community-reports strategy")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate on registry override changes")

	_ = cmd.MarkFlagRequired("framework")
	_ = cmd.MarkFlagRequired("framework-version")

	return cmd
}

func validateOnce(cmd *cobra.Command, store *registry.Store, eng *validation.Engine, opts validation.Options, framework, fwVersion, profile, instanceType string, envOverrides map[string]string) error {
	out := cmd.OutOrStdout()

	fw := store.LookupFramework(framework, fwVersion)
	if fw == nil {
		return fmt.Errorf("framework %s %s is not in the registry", framework, fwVersion)
	}

	effective, err := registry.ApplyFrameworkProfile(fw, profile)
	if err != nil {
		return err
	}

	if instanceType != "" {
		compat := store.ValidateInstanceType(instanceType, effective)
		switch {
		case !compat.Compatible:
			fmt.Fprintf(out, "INCOMPATIBLE: %s\n", compat.Error)
			for _, rec := range compat.Recommendations {
				fmt.Fprintf(out, "  recommended: %s\n", rec)
			}
		case compat.Warning != "":
			fmt.Fprintf(out, "compatible with warning: %s\n", compat.Warning)
		default:
			fmt.Fprintf(out, "compatible: %s\n", instanceType)
			if compat.Info != "" {
				fmt.Fprintf(out, "  note: %s\n", compat.Info)
			}
		}
	}

	envVars := registry.Overlay(effective.EnvVars, envOverrides)
	result := eng.ValidateEnvironmentVariables(fw.Name, fw.Version, envVars, opts)

	for _, f := range result.Warnings {
		fmt.Fprintf(out, "warning [%s] %s: %s\n", f.Strategy, f.Key, f.Message)
	}
	for _, f := range result.Errors {
		fmt.Fprintf(out, "error   [%s] %s: %s\n", f.Strategy, f.Key, f.Message)
	}
	fmt.Fprintf(out, "%d warning(s), %d error(s) from %d strateg(ies)\n",
		len(result.Warnings), len(result.Errors), len(result.StrategiesUsed))

	if len(result.Errors) > 0 {
		return fmt.Errorf("validation produced %d blocking finding(s)", len(result.Errors))
	}
	return nil
}
