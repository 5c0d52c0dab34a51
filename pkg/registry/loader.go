package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var (
	instanceTypeRe   = regexp.MustCompile(`^ml\.[a-z0-9]+\.[a-z0-9]+$`)
	instanceMemoryRe = regexp.MustCompile(`^[0-9]+ (GB|TB)$`)
)

// Loader loads registry tables from the embedded data files plus an optional
// override directory, validates every entry, and produces an immutable Store.
type Loader struct {
	schemas   *SchemaRegistry
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLoader creates a registry loader.
func NewLoader(logger zerolog.Logger) *Loader {
	v := validator.New()
	// Registration only fails for empty tag names.
	_ = v.RegisterValidation("instance_type", func(fl validator.FieldLevel) bool {
		return instanceTypeRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("instance_memory", func(fl validator.FieldLevel) bool {
		return instanceMemoryRe.MatchString(fl.Field().String())
	})

	return &Loader{
		schemas:   NewSchemaRegistry(),
		validator: v,
		logger:    logger.With().Str("component", "registry-loader").Logger(),
	}
}

// Load parses the embedded registry data, applies overrides from overrideDir
// when non-empty, validates everything, and returns the Store. Any entry that
// fails structural validation aborts the load with a *SchemaError.
func (l *Loader) Load(overrideDir string) (*Store, error) {
	merged, err := l.readFS(builtinFS, "data")
	if err != nil {
		return nil, err
	}

	if overrideDir != "" {
		overrides, err := l.readDir(overrideDir)
		if err != nil {
			return nil, err
		}
		merged = mergeTables(merged, overrides)
	}

	if err := l.validate(merged); err != nil {
		return nil, err
	}

	store, err := newStore(merged.Frameworks, merged.Models, merged.Instances, l.logger)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Int("frameworks", len(merged.Frameworks)).
		Int("models", len(merged.Models)).
		Int("instances", len(merged.Instances)).
		Msg("Registries loaded")

	return store, nil
}

// readFS reads and concatenates every registry YAML document under root.
// Files are read in lexical order so declared model order is stable.
func (l *Loader) readFS(fsys fs.FS, root string) (registryFile, error) {
	var merged registryFile

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return merged, fmt.Errorf("failed to read registry data: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return merged, fmt.Errorf("failed to read registry file %s: %w", name, err)
		}

		var file registryFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return merged, fmt.Errorf("failed to parse registry file %s: %w", name, err)
		}

		merged.Frameworks = append(merged.Frameworks, file.Frameworks...)
		merged.Models = append(merged.Models, file.Models...)
		merged.Instances = append(merged.Instances, file.Instances...)
	}

	return merged, nil
}

// readDir reads override files from a directory on disk.
func (l *Loader) readDir(dir string) (registryFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return registryFile{}, fmt.Errorf("registry override directory: %w", err)
	}
	if !info.IsDir() {
		return registryFile{}, fmt.Errorf("registry override path %s is not a directory", dir)
	}
	return l.readFS(os.DirFS(dir), ".")
}

// mergeTables merges override tables over base tables. Overrides with the
// same unique key replace the base entry in place, preserving the base
// entry's declared position; new entries are appended after the base table,
// keeping their own declared order.
func mergeTables(base, overrides registryFile) registryFile {
	merged := registryFile{
		Frameworks: mergeFrameworks(base.Frameworks, overrides.Frameworks),
		Models:     mergeModels(base.Models, overrides.Models),
		Instances:  mergeInstances(base.Instances, overrides.Instances),
	}
	return merged
}

func mergeFrameworks(base, overrides []FrameworkEntry) []FrameworkEntry {
	merged := make([]FrameworkEntry, len(base))
	copy(merged, base)
	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if frameworkKey(merged[i].Name, merged[i].Version) == frameworkKey(o.Name, o.Version) {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

func mergeModels(base, overrides []ModelEntry) []ModelEntry {
	merged := make([]ModelEntry, len(base))
	copy(merged, base)
	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].ID == o.ID {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

func mergeInstances(base, overrides []InstanceEntry) []InstanceEntry {
	merged := make([]InstanceEntry, len(base))
	copy(merged, base)
	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Type == o.Type {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

// validate runs every entry through the CUE shape schema and the struct
// validator. The first failure aborts with a *SchemaError.
func (l *Loader) validate(tables registryFile) error {
	for i := range tables.Frameworks {
		fw := tables.Frameworks[i]
		key := frameworkKey(fw.Name, fw.Version)
		if err := l.schemas.ValidateFramework(fw); err != nil {
			return &SchemaError{Table: "frameworks", Key: key, Err: err}
		}
		if err := l.validator.Struct(fw); err != nil {
			return &SchemaError{Table: "frameworks", Key: key, Err: err}
		}
	}

	for i := range tables.Models {
		m := tables.Models[i]
		if err := l.schemas.ValidateModel(m); err != nil {
			return &SchemaError{Table: "models", Key: m.ID, Err: err}
		}
		if err := l.validator.Struct(m); err != nil {
			return &SchemaError{Table: "models", Key: m.ID, Err: err}
		}
	}

	for i := range tables.Instances {
		inst := tables.Instances[i]
		if err := l.schemas.ValidateInstance(inst); err != nil {
			return &SchemaError{Table: "instances", Key: inst.Type, Err: err}
		}
		if err := l.validator.Struct(inst); err != nil {
			return &SchemaError{Table: "instances", Key: inst.Type, Err: err}
		}
	}

	return nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
