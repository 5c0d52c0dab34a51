package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/registry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/resolve"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/telemetry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

// Orchestrator sequences the configuration phases. It owns no policy about
// rendering or persistence beyond what its collaborators provide.
type Orchestrator struct {
	store     *registry.Store
	resolver  *resolve.Resolver
	validator *validation.Engine
	prompter  Prompter
	fetcher   MetadataFetcher
	runs      RunStore
	sink      telemetry.Sink
	logger    zerolog.Logger
}

// Deps are the collaborators an Orchestrator is built from. Store and
// Validator are required; Prompter, Fetcher, Runs and Sink may be nil, which
// disables prompting, external metadata, prior-run persistence and event
// emission respectively. A nil Resolver gets the default promptability table.
type Deps struct {
	Store     *registry.Store
	Resolver  *resolve.Resolver
	Validator *validation.Engine
	Prompter  Prompter
	Fetcher   MetadataFetcher
	Runs      RunStore
	Sink      telemetry.Sink
	Logger    zerolog.Logger
}

// NewOrchestrator creates an orchestrator from its collaborators.
func NewOrchestrator(deps Deps) *Orchestrator {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = NewResolver()
	}
	sink := deps.Sink
	if sink == nil {
		sink = nopSink{}
	}

	return &Orchestrator{
		store:     deps.Store,
		resolver:  resolver,
		validator: deps.Validator,
		prompter:  deps.Prompter,
		fetcher:   deps.Fetcher,
		runs:      deps.Runs,
		sink:      sink,
		logger:    deps.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// ConfigureRun executes one full configuration run and returns the project
// configuration to hand to the Generator. Blocking conditions either get an
// explicit affirmative confirmation or the run ends in an error before any
// generation step.
func (o *Orchestrator) ConfigureRun(ctx context.Context, opts RunOptions) (*ProjectConfig, error) {
	runID := uuid.New().String()
	logger := o.logger.With().Str("run_id", runID).Logger()

	o.sink.Info(telemetry.EventTypeRunStarted, "configuration run started",
		map[string]interface{}{"run_id": runID, "project_dir": opts.ProjectDir})

	prior := o.loadPriorRun(ctx, opts.ProjectDir, logger)
	prompted := make(map[string]interface{})
	var params []resolve.Parameter

	record := func(p resolve.Parameter) resolve.Parameter {
		params = append(params, p)
		return p
	}

	// Phase 1: project identity.
	o.sink.Info(telemetry.EventTypePhaseStarted, "configuring project", nil)

	projectName, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamProjectName,
		Message: "Project name",
		Default: filepath.Base(opts.ProjectDir),
	}, func() interface{} { return filepath.Base(opts.ProjectDir) })
	if err != nil {
		return nil, err
	}
	record(projectName)

	// Phase 2: framework selection.
	o.sink.Info(telemetry.EventTypePhaseStarted, "configuring framework", nil)

	frameworkName, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamFramework,
		Message: "Serving framework",
		Choices: o.store.FrameworkNames(),
	}, func() interface{} { return firstOrEmpty(o.store.FrameworkNames()) })
	if err != nil {
		return nil, err
	}
	record(frameworkName)

	versions := o.store.FrameworkVersions(frameworkName.String())
	frameworkVersion, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamFrameworkVersion,
		Message: fmt.Sprintf("%s version", frameworkName.String()),
		Choices: versions,
	}, func() interface{} { return firstOrEmpty(versions) })
	if err != nil {
		return nil, err
	}
	record(frameworkVersion)

	// No implicit version fallback: an unmatched pair is a hard miss.
	fw := o.store.LookupFramework(frameworkName.String(), frameworkVersion.String())
	if fw == nil {
		return nil, fmt.Errorf("framework %s %s is not in the registry",
			frameworkName.String(), frameworkVersion.String())
	}

	profileName, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamProfile,
		Message: "Configuration profile (empty for none)",
		Choices: profileNames(fw),
	}, nil)
	if err != nil {
		return nil, err
	}
	record(profileName)

	effective, err := registry.ApplyFrameworkProfile(fw, profileName.String())
	if err != nil {
		return nil, err
	}

	// Phase 3: model selection.
	o.sink.Info(telemetry.EventTypePhaseStarted, "configuring model", nil)

	modelID, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamModelID,
		Message: "Model identifier (empty to skip)",
	}, nil)
	if err != nil {
		return nil, err
	}
	record(modelID)

	var model *registry.ModelEntry
	var chatTemplate *string
	if id := modelID.String(); id != "" {
		model = o.store.LookupModel(id)
		if model == nil {
			o.sink.Warn(telemetry.EventTypeValidationFinding,
				fmt.Sprintf("model %s is not in the registry; validation level is unknown", id), nil)
		} else {
			chatTemplate = model.ChatTemplate
			if model.ValidationLevel == registry.ValidationExperimental {
				o.sink.Warn(telemetry.EventTypeValidationFinding,
					fmt.Sprintf("model %s matched an experimental registry entry (%s)", id, model.ID), nil)
			}
		}

		if chatTemplate == nil {
			if meta := o.fetchModelMetadata(ctx, id); meta != nil && meta.ChatTemplate != nil {
				chatTemplate = meta.ChatTemplate
			}
		}

		if model != nil && model.RequiresTemplate && chatTemplate == nil {
			o.sink.Warn(telemetry.EventTypeValidationFinding,
				fmt.Sprintf("model %s requires a chat template but none was found", id), nil)
		}
	}

	tmplParam := record(o.resolver.Resolve(ParamChatTemplate,
		opts.Explicit, prior, prompted,
		func() interface{} {
			if chatTemplate == nil {
				return nil
			}
			return *chatTemplate
		}))
	if s := tmplParam.String(); s != "" {
		chatTemplate = &s
	}

	// Phase 4: instance selection and compatibility.
	o.sink.Info(telemetry.EventTypePhaseStarted, "configuring instance type", nil)

	instanceType, err := o.resolveParam(ctx, opts, prior, prompted, Question{
		Name:    ParamInstanceType,
		Message: "SageMaker instance type",
		Choices: o.store.InstanceTypes(),
	}, func() interface{} { return firstOrEmpty(effective.RecommendedInstanceTypes) })
	if err != nil {
		return nil, err
	}
	record(instanceType)

	compat := o.store.ValidateInstanceType(instanceType.String(), effective)
	if err := o.handleCompatibility(ctx, opts, instanceType.String(), compat); err != nil {
		return nil, err
	}

	amiVersion := record(o.resolver.Resolve(ParamInferenceAmiVersion,
		opts.Explicit, prior, prompted,
		func() interface{} { return effective.InferenceAmiVersion }))

	// Phase 5: effective environment and validation.
	o.sink.Info(telemetry.EventTypePhaseStarted, "validating environment variables", nil)

	overrides := envOverrides(opts.Explicit, prior)
	if model != nil {
		merged, err := registry.ApplyModelProfile(model, modelProfileName(model, profileName.String()), overrides)
		if err == nil {
			overrides = merged
		}
	}
	envVars := registry.Overlay(effective.EnvVars, overrides)

	result := o.validator.ValidateEnvironmentVariables(fw.Name, fw.Version, envVars, opts.Validation)
	o.emitFindings(result)

	if len(result.Errors) > 0 {
		if err := o.handleBlockingValidation(ctx, opts, result); err != nil {
			return nil, err
		}
	}

	cfg := &ProjectConfig{
		RunID:               runID,
		ProjectName:         projectName.String(),
		Framework:           effective,
		Model:               model,
		ModelID:             modelID.String(),
		ChatTemplate:        chatTemplate,
		InstanceType:        instanceType.String(),
		InferenceAmiVersion: amiVersion.String(),
		EnvVars:             envVars,
		Compatibility:       compat,
		Validation:          result,
		Parameters:          params,
	}

	o.saveRun(ctx, opts.ProjectDir, params, logger)

	o.sink.Info(telemetry.EventTypeRunCompleted, "configuration run completed",
		map[string]interface{}{"run_id": runID, "project": cfg.ProjectName})

	return cfg, nil
}

// resolveParam prompts when the parameter should be asked and a prompter is
// available, then resolves the value by precedence. The prior-run value, when
// present, becomes the prompt default.
func (o *Orchestrator) resolveParam(ctx context.Context, opts RunOptions, prior, prompted map[string]interface{}, q Question, defaultFn func() interface{}) (resolve.Parameter, error) {
	if o.prompter != nil && o.resolver.ShouldPrompt(q.Name, opts.Explicit) {
		if q.Default == nil {
			if v, ok := prior[q.Name]; ok && v != nil {
				q.Default = v
			} else if defaultFn != nil {
				q.Default = defaultFn()
			}
		}

		answer, err := o.prompter.Ask(ctx, q)
		if err != nil {
			return resolve.Parameter{}, &UserAbortError{Reason: fmt.Sprintf("prompt for %s ended: %v", q.Name, err)}
		}
		if answer != nil {
			prompted[q.Name] = answer
		}
	}

	return o.resolver.Resolve(q.Name, opts.Explicit, prior, prompted, defaultFn), nil
}

// handleCompatibility enforces the blocking semantics of an incompatible
// verdict: explicit confirmation or the run ends here.
func (o *Orchestrator) handleCompatibility(ctx context.Context, opts RunOptions, instanceType string, compat registry.CompatibilityResult) error {
	data := map[string]interface{}{"instance_type": instanceType, "compatible": compat.Compatible}

	if compat.Compatible {
		o.sink.Info(telemetry.EventTypeCompatibility, "instance type is compatible", data)
		if compat.Warning != "" {
			o.sink.Warn(telemetry.EventTypeCompatibility, compat.Warning, data)
		}
		if compat.Info != "" {
			o.sink.Info(telemetry.EventTypeCompatibility, compat.Info, data)
		}
		return nil
	}

	o.sink.Error(telemetry.EventTypeCompatibility, compat.Error, data)

	if opts.AutoConfirm {
		o.sink.Warn(telemetry.EventTypeCompatibility, "incompatible instance type accepted by auto-confirm", data)
		return nil
	}

	if o.prompter != nil {
		ok, err := o.prompter.Confirm(ctx,
			fmt.Sprintf("%s — proceed anyway?", compat.Error), false)
		if err != nil || !ok {
			return &UserAbortError{Reason: compat.Error}
		}
		o.sink.Warn(telemetry.EventTypeCompatibility, "incompatible instance type confirmed by user", data)
		return nil
	}

	return &CompatibilityError{
		InstanceType:    instanceType,
		Reason:          compat.Error,
		Recommendations: compat.Recommendations,
	}
}

// handleBlockingValidation enforces the blocking semantics of validation
// errors. The engine aggregates; halting policy lives here.
func (o *Orchestrator) handleBlockingValidation(ctx context.Context, opts RunOptions, result validation.Result) error {
	if opts.AutoConfirm {
		o.sink.Warn(telemetry.EventTypeValidationFinding,
			fmt.Sprintf("%d blocking finding(s) accepted by auto-confirm", len(result.Errors)), nil)
		return nil
	}

	if o.prompter != nil {
		ok, err := o.prompter.Confirm(ctx,
			fmt.Sprintf("%d environment variable(s) failed validation — proceed anyway?", len(result.Errors)), false)
		if err != nil || !ok {
			return &UserAbortError{Reason: "blocking validation findings"}
		}
		return nil
	}

	return &ValidationBlockedError{Result: result}
}

// fetchModelMetadata invokes the external metadata service with failure
// isolation: errors, panics, and timeouts degrade to "unavailable" and the
// run proceeds on registry data alone.
func (o *Orchestrator) fetchModelMetadata(ctx context.Context, modelID string) (meta *ModelMetadata) {
	if o.fetcher == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			o.sink.Info(telemetry.EventTypeMetadataDegraded,
				fmt.Sprintf("external model metadata unavailable for %s: %v", modelID, r), nil)
			meta = nil
		}
	}()

	m, err := o.fetcher.FetchModelMetadata(ctx, modelID)
	if err != nil {
		o.sink.Info(telemetry.EventTypeMetadataDegraded,
			fmt.Sprintf("external model metadata unavailable for %s: %v", modelID, err), nil)
		return nil
	}
	return m
}

// loadPriorRun loads the prior-run parameters; a store failure degrades to
// an empty map.
func (o *Orchestrator) loadPriorRun(ctx context.Context, projectDir string, logger zerolog.Logger) map[string]interface{} {
	if o.runs == nil {
		return map[string]interface{}{}
	}

	prior, err := o.runs.LoadPriorRun(ctx, projectDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load prior run; starting fresh")
		return map[string]interface{}{}
	}
	if prior == nil {
		return map[string]interface{}{}
	}
	return prior
}

// saveRun persists the resolved parameters; a store failure is a warning,
// never a run failure.
func (o *Orchestrator) saveRun(ctx context.Context, projectDir string, params []resolve.Parameter, logger zerolog.Logger) {
	if o.runs == nil {
		return
	}

	values := make(map[string]interface{}, len(params))
	for _, p := range params {
		if p.Value != nil {
			values[p.Name] = p.Value
		}
	}

	if err := o.runs.SaveRun(ctx, projectDir, values); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist run parameters")
	}
}

// emitFindings forwards every validation finding to the sink.
func (o *Orchestrator) emitFindings(result validation.Result) {
	for _, f := range result.Warnings {
		o.sink.Warn(telemetry.EventTypeValidationFinding, f.Message,
			map[string]interface{}{"key": f.Key, "strategy": f.Strategy})
	}
	for _, f := range result.Errors {
		o.sink.Error(telemetry.EventTypeValidationFinding, f.Message,
			map[string]interface{}{"key": f.Key, "strategy": f.Strategy})
	}
}

// envOverrides extracts the env-var override map from the explicit and
// prior-run sources, explicit winning.
func envOverrides(explicit, prior map[string]interface{}) map[string]string {
	if m := toStringMap(explicit[ParamEnvOverrides]); m != nil {
		return m
	}
	if m := toStringMap(prior[ParamEnvOverrides]); m != nil {
		return m
	}
	return map[string]string{}
}

// toStringMap normalizes the override value shapes produced by flag parsing
// and JSON round-trips.
func toStringMap(v interface{}) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = fmt.Sprintf("%v", val)
		}
		return out
	default:
		return nil
	}
}

// modelProfileName returns profileName when the model declares it, else "".
func modelProfileName(model *registry.ModelEntry, profileName string) string {
	if profileName == "" {
		return ""
	}
	if _, ok := model.Profiles[profileName]; ok {
		return profileName
	}
	return ""
}

// profileNames lists a framework's profile names, empty-first so "none" is
// always offered.
func profileNames(fw *registry.FrameworkEntry) []string {
	names := []string{""}
	for name := range fw.Profiles {
		names = append(names, name)
	}
	return names
}

func firstOrEmpty(list []string) interface{} {
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// nopSink drops every event.
type nopSink struct{}

func (nopSink) Info(string, string, map[string]interface{})  {}
func (nopSink) Warn(string, string, map[string]interface{})  {}
func (nopSink) Error(string, string, map[string]interface{}) {}
