package engine

import (
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/registry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/resolve"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/validation"
)

// RunOptions configures one configuration run.
type RunOptions struct {
	// ProjectDir is the directory the project will be generated into. It
	// also keys the prior-run store.
	ProjectDir string

	// Explicit is the non-interactive configuration map (flags, environment,
	// config file). Entries mapped to nil count as absent; false, 0 and ""
	// count as present.
	Explicit map[string]interface{}

	// Validation controls the validation strategy pipeline.
	Validation validation.Options

	// AutoConfirm accepts blocking findings without asking. Intended for
	// scripted runs that have reviewed the configuration already.
	AutoConfirm bool
}

// ProjectConfig is the outcome of a configuration run, handed to the
// Generator collaborator. It is created fresh each run and not persisted by
// the engine itself.
type ProjectConfig struct {
	// RunID uniquely identifies this configuration run.
	RunID string `json:"runId"`

	// ProjectName is the resolved project name.
	ProjectName string `json:"projectName"`

	// Framework is the effective framework entry, profile already applied.
	Framework *registry.FrameworkEntry `json:"framework"`

	// Model is the matched model entry, nil when the model id is not in the
	// registry.
	Model *registry.ModelEntry `json:"model,omitempty"`

	// ModelID is the resolved model identifier, possibly empty.
	ModelID string `json:"modelId,omitempty"`

	// ChatTemplate is the template to install, nil when none was found.
	ChatTemplate *string `json:"chatTemplate,omitempty"`

	// InstanceType is the chosen instance type.
	InstanceType string `json:"instanceType"`

	// InferenceAmiVersion is the resolved AMI version string.
	InferenceAmiVersion string `json:"inferenceAmiVersion"`

	// EnvVars is the effective, fully merged environment-variable map.
	EnvVars map[string]string `json:"envVars"`

	// Compatibility is the instance compatibility verdict.
	Compatibility registry.CompatibilityResult `json:"compatibility"`

	// Validation is the aggregated validation result.
	Validation validation.Result `json:"validation"`

	// Parameters records every resolved parameter with its origin.
	Parameters []resolve.Parameter `json:"parameters"`
}
