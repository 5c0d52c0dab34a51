package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/registry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/resolve"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/telemetry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

// fakePrompter answers from a script, falling back to the question's default.
type fakePrompter struct {
	answers  map[string]interface{}
	confirm  bool
	askErr   error
	asked    []Question
	confirms []string
}

func (p *fakePrompter) Ask(_ context.Context, q Question) (interface{}, error) {
	if p.askErr != nil {
		return nil, p.askErr
	}
	p.asked = append(p.asked, q)
	if v, ok := p.answers[q.Name]; ok {
		return v, nil
	}
	return q.Default, nil
}

func (p *fakePrompter) Confirm(_ context.Context, message string, def bool) (bool, error) {
	p.confirms = append(p.confirms, message)
	return p.confirm, nil
}

func (p *fakePrompter) askedFor(name string) *Question {
	for i := range p.asked {
		if p.asked[i].Name == name {
			return &p.asked[i]
		}
	}
	return nil
}

// fakeRunStore is an in-memory RunStore.
type fakeRunStore struct {
	prior   map[string]interface{}
	loadErr error
	saveErr error
	saved   map[string]interface{}
}

func (s *fakeRunStore) LoadPriorRun(context.Context, string) (map[string]interface{}, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.prior, nil
}

func (s *fakeRunStore) SaveRun(_ context.Context, _ string, params map[string]interface{}) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = params
	return nil
}

// fakeFetcher scripts the external metadata service.
type fakeFetcher struct {
	meta   *ModelMetadata
	err    error
	panics bool
}

func (f *fakeFetcher) FetchModelMetadata(context.Context, string) (*ModelMetadata, error) {
	if f.panics {
		panic("metadata service exploded")
	}
	return f.meta, f.err
}

// recordingSink captures emitted events.
type recordingSink struct {
	events []telemetry.Event
}

func (s *recordingSink) record(level, eventType, msg string, data map[string]interface{}) {
	s.events = append(s.events, telemetry.Event{Type: eventType, Level: level, Message: msg, Data: data})
}

func (s *recordingSink) Info(t, m string, d map[string]interface{})  { s.record("info", t, m, d) }
func (s *recordingSink) Warn(t, m string, d map[string]interface{})  { s.record("warning", t, m, d) }
func (s *recordingSink) Error(t, m string, d map[string]interface{}) { s.record("error", t, m, d) }

func (s *recordingSink) hasEvent(eventType string) bool {
	for _, e := range s.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

// errorStrategy always produces one blocking finding.
type errorStrategy struct{}

func (errorStrategy) Name() string                   { return "always-blocks" }
func (errorStrategy) Enabled(validation.Options) bool { return true }
func (errorStrategy) Validate(string, string, map[string]string) ([]validation.Finding, []validation.Finding) {
	return nil, []validation.Finding{{
		Key: "BAD_FLAG", Message: "BAD_FLAG is forbidden",
		Severity: validation.SeverityError, Strategy: "always-blocks",
	}}
}

func testStore(t *testing.T) *registry.Store {
	t.Helper()
	store, err := registry.NewLoader(zerolog.Nop()).Load("")
	if err != nil {
		t.Fatalf("failed to load registries: %v", err)
	}
	return store
}

func testDeps(t *testing.T) (Deps, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return Deps{
		Store:     testStore(t),
		Validator: validation.NewEngine(zerolog.Nop()),
		Sink:      sink,
		Logger:    zerolog.Nop(),
	}, sink
}

func explicitVLLM() map[string]interface{} {
	return map[string]interface{}{
		ParamProjectName:      "my-endpoint",
		ParamFramework:        "vllm",
		ParamFrameworkVersion: "0.4.0",
		ParamProfile:          "",
		ParamModelID:          "",
		ParamInstanceType:     "ml.g5.xlarge",
	}
}

func TestConfigureRunNonInteractiveExplicit(t *testing.T) {
	deps, sink := testDeps(t)
	runs := &fakeRunStore{}
	deps.Runs = runs

	explicit := explicitVLLM()
	explicit[ParamEnvOverrides] = map[string]string{"HF_TOKEN_PATH": "/secrets/hf"}

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/my-endpoint",
		Explicit:   explicit,
		Validation: validation.Options{Enabled: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectName != "my-endpoint" {
		t.Errorf("project name = %q", cfg.ProjectName)
	}
	if cfg.Framework.Name != "vllm" || cfg.Framework.Version != "0.4.0" {
		t.Errorf("framework = %s %s", cfg.Framework.Name, cfg.Framework.Version)
	}
	if cfg.InstanceType != "ml.g5.xlarge" {
		t.Errorf("instance type = %q", cfg.InstanceType)
	}
	if !cfg.Compatibility.Compatible {
		t.Errorf("expected compatible verdict: %+v", cfg.Compatibility)
	}
	if cfg.InferenceAmiVersion != "al2-ami-sagemaker-inference-gpu-2" {
		t.Errorf("ami version = %q", cfg.InferenceAmiVersion)
	}

	// Framework defaults survive under the override.
	if cfg.EnvVars["VLLM_LOGGING_LEVEL"] != "INFO" {
		t.Errorf("framework default lost: %v", cfg.EnvVars)
	}
	if cfg.EnvVars["HF_TOKEN_PATH"] != "/secrets/hf" {
		t.Errorf("override lost: %v", cfg.EnvVars)
	}

	// Every explicit parameter resolved with explicit origin.
	for _, p := range cfg.Parameters {
		if _, ok := explicit[p.Name]; ok && p.Origin != resolve.OriginExplicit {
			t.Errorf("parameter %s origin = %s, want explicit", p.Name, p.Origin)
		}
	}

	if runs.saved == nil {
		t.Error("expected the run to be persisted")
	}
	if !sink.hasEvent(telemetry.EventTypeRunCompleted) {
		t.Error("expected run.completed event")
	}
}

func TestConfigureRunDefaultsWithoutPrompter(t *testing.T) {
	deps, _ := testDeps(t)

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/fresh-endpoint",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectName != "fresh-endpoint" {
		t.Errorf("project name should default to the directory base, got %q", cfg.ProjectName)
	}
	// First declared framework and its first recommended instance.
	if cfg.Framework.Name != "vllm" || cfg.Framework.Version != "0.4.0" {
		t.Errorf("framework = %s %s", cfg.Framework.Name, cfg.Framework.Version)
	}
	if cfg.InstanceType != "ml.g5.xlarge" {
		t.Errorf("instance type = %q", cfg.InstanceType)
	}
	if cfg.ModelID != "" {
		t.Errorf("model id should default empty, got %q", cfg.ModelID)
	}
}

func TestConfigureRunProfileOverlay(t *testing.T) {
	deps, _ := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamProfile] = "throughput"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EnvVars["VLLM_MAX_NUM_SEQS"] != "512" {
		t.Errorf("profile overlay lost: %v", cfg.EnvVars)
	}
}

func TestConfigureRunUnknownProfile(t *testing.T) {
	deps, _ := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamProfile] = "warp-speed"

	if _, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	}); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestConfigureRunUnknownFrameworkPair(t *testing.T) {
	deps, _ := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamFrameworkVersion] = "0.4.1"

	if _, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	}); err == nil {
		t.Fatal("expected error for unregistered framework version; there is no fallback")
	}
}

func TestConfigureRunPriorRunOutranksPrompt(t *testing.T) {
	deps, _ := testDeps(t)

	prompter := &fakePrompter{answers: map[string]interface{}{
		ParamFramework: "vllm",
	}}
	deps.Prompter = prompter
	deps.Runs = &fakeRunStore{prior: map[string]interface{}{
		ParamFramework:        "sglang",
		ParamFrameworkVersion: "0.3.0",
		ParamInstanceType:     "ml.g5.xlarge",
	}}

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/repeat",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Framework.Name != "sglang" {
		t.Errorf("prior-run value must outrank the prompted answer, got %s", cfg.Framework.Name)
	}

	// The prior value is offered as the prompt default.
	if q := prompter.askedFor(ParamFramework); q == nil || q.Default != "sglang" {
		t.Errorf("prompt default should carry the prior value, got %+v", q)
	}
}

func TestConfigureRunPromptAbort(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Prompter = &fakePrompter{askErr: fmt.Errorf("ctrl-c")}

	_, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
	})

	var abort *UserAbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected *UserAbortError, got %v", err)
	}
}

func TestConfigureRunIncompatibleNonInteractive(t *testing.T) {
	deps, _ := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamFramework] = "tensorrt-llm"
	explicit[ParamFrameworkVersion] = "1.0.0"
	explicit[ParamInstanceType] = "ml.inf2.xlarge"

	_, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})

	var compatErr *CompatibilityError
	if !errors.As(err, &compatErr) {
		t.Fatalf("expected *CompatibilityError, got %v", err)
	}
	want := []string{"ml.g5.2xlarge", "ml.g5.4xlarge", "ml.g5.12xlarge", "ml.g5.48xlarge"}
	if len(compatErr.Recommendations) != len(want) {
		t.Fatalf("recommendations = %v, want %v", compatErr.Recommendations, want)
	}
	for i, rec := range want {
		if compatErr.Recommendations[i] != rec {
			t.Errorf("recommendation[%d] = %s, want %s", i, compatErr.Recommendations[i], rec)
		}
	}
}

func TestConfigureRunIncompatibleDeclined(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Prompter = &fakePrompter{confirm: false}

	explicit := explicitVLLM()
	explicit[ParamInstanceType] = "ml.inf2.xlarge"

	_, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})

	var abort *UserAbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected *UserAbortError after decline, got %v", err)
	}
}

func TestConfigureRunIncompatibleConfirmed(t *testing.T) {
	deps, sink := testDeps(t)
	deps.Prompter = &fakePrompter{confirm: true}

	explicit := explicitVLLM()
	explicit[ParamInstanceType] = "ml.inf2.xlarge"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("confirmed override must proceed, got %v", err)
	}
	if cfg.Compatibility.Compatible {
		t.Error("the verdict itself stays incompatible")
	}
	if !sink.hasEvent(telemetry.EventTypeCompatibility) {
		t.Error("expected compatibility events")
	}
}

func TestConfigureRunIncompatibleAutoConfirm(t *testing.T) {
	deps, _ := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamInstanceType] = "ml.inf2.xlarge"

	if _, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir:  "/projects/p",
		Explicit:    explicit,
		AutoConfirm: true,
	}); err != nil {
		t.Fatalf("auto-confirm must proceed past compatibility, got %v", err)
	}
}

func TestConfigureRunModelTemplateFromRegistry(t *testing.T) {
	deps, sink := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamModelID] = "mistralai/Mistral-7B-Instruct-v3.9"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model == nil || cfg.Model.ID != "mistralai/Mistral-*" {
		t.Fatalf("expected wildcard model match, got %+v", cfg.Model)
	}
	if cfg.ChatTemplate == nil {
		t.Error("expected chat template from the registry entry")
	}
	// Experimental entries get surfaced.
	if !sink.hasEvent(telemetry.EventTypeValidationFinding) {
		t.Error("expected an experimental-model warning event")
	}
}

func TestConfigureRunMetadataFetch(t *testing.T) {
	deps, _ := testDeps(t)
	tmpl := "{{ messages }}"
	deps.Fetcher = &fakeFetcher{meta: &ModelMetadata{ChatTemplate: &tmpl}}

	explicit := explicitVLLM()
	explicit[ParamModelID] = "meta-llama/Meta-Llama-3-8B-Instruct"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChatTemplate == nil || *cfg.ChatTemplate != tmpl {
		t.Errorf("expected fetched template, got %v", cfg.ChatTemplate)
	}
}

func TestConfigureRunMetadataPanicDegrades(t *testing.T) {
	deps, sink := testDeps(t)
	deps.Fetcher = &fakeFetcher{panics: true}

	explicit := explicitVLLM()
	explicit[ParamModelID] = "meta-llama/Meta-Llama-3-8B-Instruct"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("metadata failure must not fail the run: %v", err)
	}
	if cfg.ChatTemplate != nil {
		t.Errorf("expected nil template after degraded fetch, got %v", cfg.ChatTemplate)
	}
	if !sink.hasEvent(telemetry.EventTypeMetadataDegraded) {
		t.Error("expected metadata.degraded event")
	}
}

func TestConfigureRunMetadataErrorDegrades(t *testing.T) {
	deps, sink := testDeps(t)
	deps.Fetcher = &fakeFetcher{err: fmt.Errorf("hub unreachable")}

	explicit := explicitVLLM()
	explicit[ParamModelID] = "meta-llama/Meta-Llama-3-8B-Instruct"

	if _, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	}); err != nil {
		t.Fatalf("metadata error must not fail the run: %v", err)
	}
	if !sink.hasEvent(telemetry.EventTypeMetadataDegraded) {
		t.Error("expected metadata.degraded event")
	}
}

func TestConfigureRunUnregisteredModelWarns(t *testing.T) {
	deps, sink := testDeps(t)

	explicit := explicitVLLM()
	explicit[ParamModelID] = "tiiuae/falcon-7b"

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicit,
	})
	if err != nil {
		t.Fatalf("unregistered model must not fail the run: %v", err)
	}
	if cfg.Model != nil {
		t.Errorf("expected nil model entry, got %+v", cfg.Model)
	}
	if !sink.hasEvent(telemetry.EventTypeValidationFinding) {
		t.Error("expected an unknown-model warning event")
	}
}

func TestConfigureRunValidationBlocks(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Validator = validation.NewEngine(zerolog.Nop(), errorStrategy{})

	_, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicitVLLM(),
		Validation: validation.Options{Enabled: true},
	})

	var blocked *ValidationBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *ValidationBlockedError, got %v", err)
	}
	if len(blocked.Result.Errors) != 1 {
		t.Errorf("expected the blocking finding in the error, got %+v", blocked.Result)
	}
}

func TestConfigureRunValidationAutoConfirm(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Validator = validation.NewEngine(zerolog.Nop(), errorStrategy{})

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir:  "/projects/p",
		Explicit:    explicitVLLM(),
		Validation:  validation.Options{Enabled: true},
		AutoConfirm: true,
	})
	if err != nil {
		t.Fatalf("auto-confirm must proceed past validation, got %v", err)
	}
	if len(cfg.Validation.Errors) != 1 {
		t.Errorf("findings must still be reported, got %+v", cfg.Validation)
	}
}

func TestConfigureRunValidationDisabled(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Validator = validation.NewEngine(zerolog.Nop(), errorStrategy{})

	cfg, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicitVLLM(),
		Validation: validation.Options{Enabled: false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Validation.Errors) != 0 || len(cfg.Validation.StrategiesUsed) != 0 {
		t.Errorf("disabled validation must produce an empty result, got %+v", cfg.Validation)
	}
}

func TestConfigureRunStoreFailuresDegrade(t *testing.T) {
	deps, _ := testDeps(t)
	deps.Runs = &fakeRunStore{
		loadErr: fmt.Errorf("disk on fire"),
		saveErr: fmt.Errorf("still on fire"),
	}

	if _, err := NewOrchestrator(deps).ConfigureRun(context.Background(), RunOptions{
		ProjectDir: "/projects/p",
		Explicit:   explicitVLLM(),
	}); err != nil {
		t.Fatalf("run store failures must not fail the run: %v", err)
	}
}
