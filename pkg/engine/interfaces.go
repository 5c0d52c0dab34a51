package engine

import (
	"context"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/resolve"
)

// Question is one interactive prompt. The engine only describes the
// question; rendering is the Prompter's concern.
type Question struct {
	// Name is the parameter name being asked about.
	Name string

	// Message is the human-readable prompt text.
	Message string

	// Default is the value offered when the user just accepts.
	Default interface{}

	// Choices restricts the answer to a fixed set when non-empty.
	Choices []string
}

// Prompter asks the user questions during interactive configuration. A nil
// Prompter makes the run non-interactive: promptable parameters fall
// through to prior-run values and defaults.
type Prompter interface {
	// Ask poses a question and returns the answer. An error means the user
	// ended the session; the engine treats it as an abort.
	Ask(ctx context.Context, q Question) (interface{}, error)

	// Confirm asks a yes/no question with the given default.
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// ModelMetadata is what an external model-metadata service knows about a
// model that the static registry may not.
type ModelMetadata struct {
	// ChatTemplate is the template published alongside the model, if any.
	ChatTemplate *string
}

// MetadataFetcher fetches model metadata from an external service. The
// engine invokes it with failure isolation: an error, panic, or timeout
// degrades the run to registry data only. Implementations must honor the
// deadline on ctx; the engine does not impose its own.
type MetadataFetcher interface {
	FetchModelMetadata(ctx context.Context, modelID string) (*ModelMetadata, error)
}

// RunStore persists resolved parameters between configuration runs of the
// same project, supplying the prior-run precedence source.
type RunStore interface {
	// LoadPriorRun returns the parameters saved for the project directory,
	// or an empty map when there is no prior run.
	LoadPriorRun(ctx context.Context, projectDir string) (map[string]interface{}, error)

	// SaveRun stores the resolved parameters for the project directory.
	SaveRun(ctx context.Context, projectDir string, params map[string]interface{}) error
}

// Generator receives the fully configured project. Template and file
// generation live outside this engine; only the handoff is specified here.
type Generator interface {
	Generate(ctx context.Context, cfg *ProjectConfig) error
}

// DefaultPromptable is the static promptability table. Parameters absent
// here are never asked interactively, even when no explicit value exists;
// they fall through to prior-run values and defaults.
func DefaultPromptable() map[string]bool {
	return map[string]bool{
		ParamProjectName:      true,
		ParamFramework:        true,
		ParamFrameworkVersion: true,
		ParamProfile:          true,
		ParamModelID:          true,
		ParamInstanceType:     true,
	}
}

// NewResolver creates the precedence resolver with the default
// promptability table.
func NewResolver() *resolve.Resolver {
	return resolve.NewResolver(DefaultPromptable())
}

// Parameter name constants.
const (
	ParamProjectName         = "project_name"
	ParamFramework           = "framework"
	ParamFrameworkVersion    = "framework_version"
	ParamProfile             = "profile"
	ParamModelID             = "model_id"
	ParamChatTemplate        = "chat_template"
	ParamInstanceType        = "instance_type"
	ParamEnvOverrides        = "env_overrides"
	ParamInferenceAmiVersion = "inference_ami_version"
)
