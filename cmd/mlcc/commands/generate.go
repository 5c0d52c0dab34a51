package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/engine"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/metadata"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/stores"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

func newGenerateCommand() *cobra.Command {
	var (
		projectDir   string
		framework    string
		fwVersion    string
		profile      string
		modelID      string
		instanceType string
		envOverrides map[string]string
		noInput      bool
		autoConfirm  bool
		noValidate   bool
		offline      bool
	)

	cmd := &cobra.Command{
		Use:   "generate [project-dir]",
		Short: "Configure an ML serving container project",
		Long: `Configure an ML serving container project.

Parameters resolve by precedence: flags given here win, then the previous
run's answers for the same project directory, then interactive answers, then
registry defaults. Flags left unset are asked interactively unless --no-input
is given.`,
		Example: `  # Interactive configuration in the current directory
  mlcc generate

  # Non-interactive, fully specified
  mlcc generate ./my-endpoint --no-input \
    --framework vllm --framework-version 0.4.0 \
    --model-id meta-llama/Llama-3-8B-Instruct \
    --instance-type ml.g5.xlarge

  # Override environment variables
  mlcc generate --env VLLM_WORKER_MULTIPROC_METHOD=spawn`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				projectDir = args[0]
			}
			absDir, err := filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("failed to resolve project directory: %w", err)
			}

			app, err := newAppContext()
			if err != nil {
				return err
			}

			explicit := map[string]interface{}{}
			if cmd.Flags().Changed("framework") {
				explicit[engine.ParamFramework] = framework
			}
			if cmd.Flags().Changed("framework-version") {
				explicit[engine.ParamFrameworkVersion] = fwVersion
			}
			if cmd.Flags().Changed("profile") {
				explicit[engine.ParamProfile] = profile
			}
			if cmd.Flags().Changed("model-id") {
				explicit[engine.ParamModelID] = modelID
			}
			if cmd.Flags().Changed("instance-type") {
				explicit[engine.ParamInstanceType] = instanceType
			}
			if len(envOverrides) > 0 {
				explicit[engine.ParamEnvOverrides] = envOverrides
			}

			validator, err := buildValidationEngine(app)
			if err != nil {
				return err
			}

			deps := engine.Deps{
				Store:     app.store,
				Validator: validator,
				Sink:      app.events,
				Logger:    app.logger.Zerolog(),
			}
			if !noInput {
				deps.Prompter = newStdioPrompter(os.Stdin, os.Stderr)
			}
			if !offline {
				deps.Fetcher = metadata.NewHuggingFaceFetcher(app.logger.Zerolog())
			}

			if runStore := openRunStore(cmd, app); runStore != nil {
				defer runStore.Close()
				deps.Runs = runStore
			}

			orch := engine.NewOrchestrator(deps)
			cfg, err := orch.ConfigureRun(cmd.Context(), engine.RunOptions{
				ProjectDir: absDir,
				Explicit:   explicit,
				Validation: validation.Options{
					Enabled:             app.cfg.Validation.Enabled && !noValidate,
					UseKnownFlags:       app.cfg.Validation.KnownFlags,
					UseCommunityReports: app.cfg.Validation.CommunityReports,
				},
				AutoConfirm: autoConfirm,
			})
			if err != nil {
				return err
			}

			return printProjectConfig(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project directory to configure")
	cmd.Flags().StringVar(&framework, "framework", "", "serving framework name")
	cmd.Flags().StringVar(&fwVersion, "framework-version", "", "serving framework version")
	cmd.Flags().StringVar(&profile, "profile", "", "configuration profile name")
	cmd.Flags().StringVar(&modelID, "model-id", "", "model identifier")
	cmd.Flags().StringVar(&instanceType, "instance-type", "", "SageMaker instance type")
	cmd.Flags().StringToStringVar(&envOverrides, "env", nil, "environment variable overrides (KEY=VALUE)")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "never prompt; fail on blocking findings")
	cmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "accept blocking findings without asking")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip environment variable validation")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip external model metadata lookup")

	return cmd
}

// buildValidationEngine assembles the strategy pipeline: known flags and
// community reports always registered, rego policies when configured.
func buildValidationEngine(app *appContext) (*validation.Engine, error) {
	eng, err := validation.NewDefaultEngine(app.logger.Zerolog())
	if err != nil {
		return nil, fmt.Errorf("failed to build validation engine: %w", err)
	}

	if len(app.cfg.Validation.PolicyDirs) > 0 {
		rego, err := validation.NewRegoStrategy(app.logger.Zerolog(), app.cfg.Validation.PolicyDirs)
		if err != nil {
			return nil, fmt.Errorf("failed to load rego policies: %w", err)
		}
		eng.Register(rego)
	}

	return eng, nil
}

// openRunStore opens the run-history database. Failures are logged and
// swallowed; prior-run memory is a convenience, not a requirement.
func openRunStore(cmd *cobra.Command, app *appContext) *stores.SQLiteStore {
	path := app.cfg.Database.Path
	if path == "" {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			app.logger.WithError(err).Warn("Failed to create database directory; running without run history")
			return nil
		}
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		app.logger.WithError(err).Warn("Failed to create run store; running without run history")
		return nil
	}

	ctx := cmd.Context()
	if err := store.Init(ctx); err != nil {
		app.logger.WithError(err).Warn("Failed to open run store; running without run history")
		return nil
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		app.logger.WithError(err).Warn("Failed to migrate run store; running without run history")
		return nil
	}

	return store
}

// printProjectConfig renders the run outcome, as JSON when requested.
func printProjectConfig(out io.Writer, cfg *engine.ProjectConfig) error {
	if jsonOutput {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, err = out.Write(append(encoded, '\n'))
		return err
	}

	fmt.Fprintf(out, "Project:        %s\n", cfg.ProjectName)
	fmt.Fprintf(out, "Framework:      %s %s\n", cfg.Framework.Name, cfg.Framework.Version)
	fmt.Fprintf(out, "Base image:     %s\n", cfg.Framework.BaseImage)
	if cfg.ModelID != "" {
		fmt.Fprintf(out, "Model:          %s\n", cfg.ModelID)
	}
	fmt.Fprintf(out, "Instance type:  %s\n", cfg.InstanceType)
	fmt.Fprintf(out, "AMI version:    %s\n", cfg.InferenceAmiVersion)
	fmt.Fprintf(out, "Env vars:       %d\n", len(cfg.EnvVars))
	fmt.Fprintf(out, "Warnings:       %d\n", len(cfg.Validation.Warnings))
	fmt.Fprintf(out, "Errors:         %d\n", len(cfg.Validation.Errors))
	return nil
}
