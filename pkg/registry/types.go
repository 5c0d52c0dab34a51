package registry

// AcceleratorType identifies a hardware compute unit class.
type AcceleratorType string

const (
	// AcceleratorCUDA is NVIDIA GPU hardware.
	AcceleratorCUDA AcceleratorType = "cuda"

	// AcceleratorNeuron is AWS Inferentia/Trainium hardware.
	AcceleratorNeuron AcceleratorType = "neuron"

	// AcceleratorCPU is CPU-only execution.
	AcceleratorCPU AcceleratorType = "cpu"

	// AcceleratorROCm is AMD GPU hardware.
	AcceleratorROCm AcceleratorType = "rocm"
)

// ValidationLevel describes how much vetting a registry entry has received.
type ValidationLevel string

const (
	ValidationTested             ValidationLevel = "tested"
	ValidationCommunityValidated ValidationLevel = "community-validated"
	ValidationExperimental       ValidationLevel = "experimental"
	ValidationUnknown            ValidationLevel = "unknown"
)

// AcceleratorSpec is a framework's accelerator requirement. The version range
// is inclusive on both bounds.
type AcceleratorSpec struct {
	// Type is the required accelerator class.
	Type AcceleratorType `json:"type" yaml:"type" validate:"required,oneof=cuda neuron cpu rocm"`

	// Version is the accelerator runtime version the framework image targets.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// MinVersion is the lowest accelerator runtime version known to work.
	MinVersion string `json:"minVersion,omitempty" yaml:"minVersion,omitempty"`

	// MaxVersion is the highest accelerator runtime version known to work.
	MaxVersion string `json:"maxVersion,omitempty" yaml:"maxVersion,omitempty"`
}

// Profile is a named, partial override of a base framework or model
// configuration.
type Profile struct {
	// DisplayName is the human-readable profile name.
	DisplayName string `json:"displayName" yaml:"displayName" validate:"required"`

	// Description explains what the profile tunes for.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// EnvVars is the environment-variable overlay. Overlay keys replace base
	// keys of the same name.
	EnvVars map[string]string `json:"envVars,omitempty" yaml:"envVars,omitempty"`

	// RecommendedInstanceTypes replaces the base recommendation list when set.
	RecommendedInstanceTypes []string `json:"recommendedInstanceTypes,omitempty" yaml:"recommendedInstanceTypes,omitempty" validate:"omitempty,min=1,dive,instance_type"`

	// Notes carries free-form operator notes.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// FrameworkEntry describes one (framework, version) pair in the framework
// registry. (name, version) pairs are unique keys.
type FrameworkEntry struct {
	// Name is the serving framework name (e.g. "vllm").
	Name string `json:"name" yaml:"name" validate:"required"`

	// Version is the exact framework version this entry describes.
	Version string `json:"version" yaml:"version" validate:"required"`

	// BaseImage is the container image the generated project builds on.
	BaseImage string `json:"baseImage" yaml:"baseImage" validate:"required"`

	// Accelerator is the hardware requirement for this framework build.
	Accelerator AcceleratorSpec `json:"accelerator" yaml:"accelerator" validate:"required"`

	// EnvVars are the default environment variables baked into the project.
	EnvVars map[string]string `json:"envVars" yaml:"envVars"`

	// InferenceAmiVersion selects the SageMaker inference AMI.
	InferenceAmiVersion string `json:"inferenceAmiVersion" yaml:"inferenceAmiVersion" validate:"required"`

	// RecommendedInstanceTypes lists instance types known to work well.
	RecommendedInstanceTypes []string `json:"recommendedInstanceTypes" yaml:"recommendedInstanceTypes" validate:"required,min=1,dive,instance_type"`

	// ValidationLevel is how much vetting this entry has received.
	ValidationLevel ValidationLevel `json:"validationLevel" yaml:"validationLevel" validate:"required,oneof=tested community-validated experimental unknown"`

	// Profiles are optional named configuration overlays.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty" validate:"omitempty,dive"`
}

// ModelEntry describes one model id or wildcard pattern in the model registry.
type ModelEntry struct {
	// ID is the exact model identifier or a wildcard pattern
	// (e.g. "mistralai/Mistral-*").
	ID string `json:"id" yaml:"id" validate:"required"`

	// Family is the model family (e.g. "llama", "mistral").
	Family string `json:"family" yaml:"family" validate:"required"`

	// ChatTemplate is the chat template to install, nil when none is known.
	ChatTemplate *string `json:"chatTemplate,omitempty" yaml:"chatTemplate,omitempty"`

	// RequiresTemplate indicates the model cannot serve chat without a template.
	RequiresTemplate bool `json:"requiresTemplate" yaml:"requiresTemplate"`

	// ValidationLevel is how much vetting this entry has received.
	ValidationLevel ValidationLevel `json:"validationLevel" yaml:"validationLevel" validate:"required,oneof=tested community-validated experimental"`

	// FrameworkCompatibility maps framework name to a version-range string
	// (e.g. ">=0.3.0"). Stored and surfaced, not compared; range math is out
	// of scope.
	FrameworkCompatibility map[string]string `json:"frameworkCompatibility" yaml:"frameworkCompatibility" validate:"required"`

	// Profiles are optional named configuration overlays.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty" validate:"omitempty,dive"`
}

// InstanceAccelerator is the accelerator capability of an instance type.
type InstanceAccelerator struct {
	// Type is the accelerator class on this instance.
	Type AcceleratorType `json:"type" yaml:"type" validate:"required,oneof=cuda neuron cpu rocm"`

	// Hardware is the accelerator hardware name (e.g. "NVIDIA A10G").
	Hardware string `json:"hardware,omitempty" yaml:"hardware,omitempty"`

	// Architecture is the hardware architecture (e.g. "ampere").
	Architecture string `json:"architecture,omitempty" yaml:"architecture,omitempty"`

	// Versions lists the accelerator runtime versions the instance supports.
	// Nil means the supported set is unknown.
	Versions []string `json:"versions,omitempty" yaml:"versions,omitempty"`

	// Default is the runtime version preinstalled on the AMI, nil when unknown.
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// InstanceEntry describes one instance type in the instance registry.
type InstanceEntry struct {
	// Type is the instance type string (ml.<family>.<size>).
	Type string `json:"type" yaml:"type" validate:"required,instance_type"`

	// Family is the instance family (e.g. "g5").
	Family string `json:"family" yaml:"family" validate:"required"`

	// Accelerator is the accelerator capability of this instance type.
	Accelerator InstanceAccelerator `json:"accelerator" yaml:"accelerator" validate:"required"`

	// Memory is the instance memory, e.g. "16 GB".
	Memory string `json:"memory" yaml:"memory" validate:"required,instance_memory"`

	// VCPUs is the vCPU count.
	VCPUs int `json:"vcpus" yaml:"vcpus" validate:"required,min=1"`
}

// registryFile is the on-disk shape of a registry YAML document. A single
// file may carry any subset of the three tables; entry order in the models
// list is the declared match order.
type registryFile struct {
	Frameworks []FrameworkEntry `yaml:"frameworks"`
	Models     []ModelEntry     `yaml:"models"`
	Instances  []InstanceEntry  `yaml:"instances"`
}
