package registry

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// definitionName maps a schema name to its CUE definition label
// ("framework" -> "#Framework").
func definitionName(name string) string {
	if name == "" {
		return name
	}
	return "#" + strings.ToUpper(name[:1]) + name[1:]
}

// SchemaRegistry manages CUE schemas for registry validation.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	ctx := cuecontext.New()
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	sr.registerBuiltInSchemas()

	return sr
}

// registerBuiltInSchemas registers the schemas for the three registry tables.
func (sr *SchemaRegistry) registerBuiltInSchemas() {
	sr.RegisterSchema("framework", builtinFrameworkSchema)
	sr.RegisterSchema("model", builtinModelSchema)
	sr.RegisterSchema("instance", builtinInstanceSchema)
}

// RegisterSchema registers a CUE schema with the given name. When the schema
// source declares a single #Definition, that definition is what entries are
// unified against, so unknown fields are rejected.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	def := val.LookupPath(cue.ParsePath(definitionName(name)))
	if def.Exists() {
		val = def
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	// Unify with schema (validates)
	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ValidateFramework validates a framework entry against the framework schema.
func (sr *SchemaRegistry) ValidateFramework(entry FrameworkEntry) error {
	return sr.ValidateAgainstSchema("framework", entry)
}

// ValidateModel validates a model entry against the model schema.
func (sr *SchemaRegistry) ValidateModel(entry ModelEntry) error {
	return sr.ValidateAgainstSchema("model", entry)
}

// ValidateInstance validates an instance entry against the instance schema.
func (sr *SchemaRegistry) ValidateInstance(entry InstanceEntry) error {
	return sr.ValidateAgainstSchema("instance", entry)
}

// Built-in schema definitions

const builtinFrameworkSchema = `
// Framework capability entry
#Framework: {
	// Name is the serving framework name
	name: string & =~"^[a-z0-9-]+$"

	// Version is the exact framework version
	version: string

	// BaseImage is the container image reference
	baseImage: string & !=""

	// Accelerator is the hardware requirement
	accelerator: {
		type:        "cuda" | "neuron" | "cpu" | "rocm"
		version?:    string
		minVersion?: string
		maxVersion?: string
	}

	// EnvVars are the default environment variables
	envVars: {[string]: string}

	// InferenceAmiVersion selects the SageMaker inference AMI
	inferenceAmiVersion: string & !=""

	// RecommendedInstanceTypes lists at least one ml.<family>.<size> type
	recommendedInstanceTypes: [...string & =~"^ml\\.[a-z0-9]+\\.[a-z0-9]+$"] & [_, ...]

	// ValidationLevel is the vetting level for this entry
	validationLevel: "tested" | "community-validated" | "experimental" | "unknown"

	// Profiles are optional named overlays
	profiles?: {[string]: {
		displayName: string & !=""
		description: string & !=""
		envVars?: {[string]: string}
		recommendedInstanceTypes?: [...string & =~"^ml\\.[a-z0-9]+\\.[a-z0-9]+$"]
		notes?: string
	}}
}
`

const builtinModelSchema = `
// Model entry, keyed by exact id or wildcard pattern
#Model: {
	// ID is the model identifier or wildcard pattern
	id: string & !=""

	// Family is the model family
	family: string & !=""

	// ChatTemplate is nullable
	chatTemplate?: string | null

	// RequiresTemplate indicates a template is mandatory for chat serving
	requiresTemplate: bool

	// ValidationLevel is the vetting level for this entry
	validationLevel: "tested" | "community-validated" | "experimental"

	// FrameworkCompatibility maps framework name to a version-range string
	frameworkCompatibility: {[string]: string}

	// Profiles are optional named overlays
	profiles?: {[string]: {
		displayName: string & !=""
		description?: string
		envVars: {[string]: string}
		recommendedInstanceTypes?: [...string & =~"^ml\\.[a-z0-9]+\\.[a-z0-9]+$"]
		notes?: string
	}}
}
`

const builtinInstanceSchema = `
// Instance to accelerator capability entry
#Instance: {
	// Type is the instance type string
	type: string & =~"^ml\\.[a-z0-9]+\\.[a-z0-9]+$"

	// Family is the instance family
	family: string & !=""

	// Accelerator is the accelerator capability
	accelerator: {
		type:          "cuda" | "neuron" | "cpu" | "rocm"
		hardware?:     string
		architecture?: string
		versions?: [...string] | null
		default?: string | null
	}

	// Memory is the instance memory
	memory: string & =~"^[0-9]+ (GB|TB)$"

	// VCPUs is the vCPU count
	vcpus: int & >=1
}
`
