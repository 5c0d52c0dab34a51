package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategyKnownFlags is the registered name of the known-flags strategy.
const StrategyKnownFlags = "known-flags-registry"

// Flag value type checks. A type failure is an error and skips the range
// check for that variable.
var (
	integerRe = regexp.MustCompile(`^-?\d+$`)
	floatRe   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// booleanValues are the accepted boolean spellings, compared case-insensitively.
var booleanValues = map[string]bool{
	"true": true, "false": true, "0": true, "1": true, "yes": true, "no": true,
}

// FlagSpec describes one catalogued environment variable.
type FlagSpec struct {
	// Type is one of integer, float, boolean, string.
	Type string `yaml:"type"`

	// Min and Max bound numeric types inclusively when set.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Deprecated marks a flag that still works but should not be used.
	Deprecated bool `yaml:"deprecated,omitempty"`

	// Replacement names the flag to use instead of a deprecated one.
	Replacement string `yaml:"replacement,omitempty"`

	// Description is a short human-readable note.
	Description string `yaml:"description,omitempty"`
}

// flagTable is framework -> version (or "default"/"all") -> variable -> spec.
type flagTable map[string]map[string]map[string]FlagSpec

// knownFlagsFile is the on-disk shape of the known-flags registry.
type knownFlagsFile struct {
	Frameworks map[string]struct {
		Versions map[string]struct {
			Flags map[string]FlagSpec `yaml:"flags"`
		} `yaml:"versions"`
	} `yaml:"frameworks"`
}

// KnownFlagsValidator checks environment variables against the known-flags
// registry for a (framework, version) pair.
type KnownFlagsValidator struct {
	table flagTable
}

// NewKnownFlagsValidator loads the embedded known-flags registry.
func NewKnownFlagsValidator() (*KnownFlagsValidator, error) {
	raw, err := dataFS.ReadFile("data/known_flags.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read known flags registry: %w", err)
	}
	return NewKnownFlagsValidatorFromYAML(raw)
}

// NewKnownFlagsValidatorFromYAML parses a known-flags registry document.
func NewKnownFlagsValidatorFromYAML(raw []byte) (*KnownFlagsValidator, error) {
	var file knownFlagsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse known flags registry: %w", err)
	}

	table := make(flagTable, len(file.Frameworks))
	for fw, body := range file.Frameworks {
		versions := make(map[string]map[string]FlagSpec, len(body.Versions))
		for version, v := range body.Versions {
			versions[version] = v.Flags
		}
		table[fw] = versions
	}

	return &KnownFlagsValidator{table: table}, nil
}

// NewKnownFlagsValidatorFromTable builds a validator from an in-memory table.
func NewKnownFlagsValidatorFromTable(table map[string]map[string]map[string]FlagSpec) *KnownFlagsValidator {
	return &KnownFlagsValidator{table: table}
}

// Name implements Strategy.
func (v *KnownFlagsValidator) Name() string {
	return StrategyKnownFlags
}

// Enabled implements Strategy.
func (v *KnownFlagsValidator) Enabled(opts Options) bool {
	return opts.UseKnownFlags
}

// Validate checks each variable against its catalogued spec. An exact
// (framework, version) bucket is preferred, falling back to the framework's
// "default" or "all" bucket. Unknown variables are warnings, not errors: the
// registry is not exhaustive. Type failures are errors and suppress the
// range check for that variable.
func (v *KnownFlagsValidator) Validate(framework, version string, envVars map[string]string) ([]Finding, []Finding) {
	var warnings, errors []Finding

	specs := v.specsFor(framework, version)

	for _, key := range sortedKeys(envVars) {
		value := envVars[key]

		spec, known := specs[key]
		if !known {
			warnings = append(warnings, Finding{
				Key:      key,
				Message:  fmt.Sprintf("%s is not in the known flags registry for %s %s; it may be a custom or un-catalogued flag", key, framework, version),
				Severity: SeverityWarning,
				Strategy: StrategyKnownFlags,
			})
			continue
		}

		if spec.Deprecated {
			warnings = append(warnings, Finding{
				Key:      key,
				Message:  fmt.Sprintf("%s is deprecated for %s %s", key, framework, version),
				Severity: SeverityWarning,
				Strategy: StrategyKnownFlags,
			})
			if spec.Replacement != "" {
				warnings = append(warnings, Finding{
					Key:      key,
					Message:  fmt.Sprintf("consider using %s instead of %s", spec.Replacement, key),
					Severity: SeverityWarning,
					Strategy: StrategyKnownFlags,
				})
			}
		}

		if msg, ok := checkType(spec.Type, value); !ok {
			errors = append(errors, Finding{
				Key:      key,
				Message:  fmt.Sprintf("%s=%q %s", key, value, msg),
				Severity: SeverityError,
				Strategy: StrategyKnownFlags,
			})
			// A type failure makes any range comparison meaningless.
			continue
		}

		if isNumeric(spec.Type) {
			if finding := checkRange(key, value, spec); finding != nil {
				errors = append(errors, *finding)
			}
		}
	}

	return warnings, errors
}

// specsFor selects the flag specs for a (framework, version) pair, with the
// "default"/"all" bucket as fallback when no exact version entry exists.
func (v *KnownFlagsValidator) specsFor(framework, version string) map[string]FlagSpec {
	versions, ok := v.table[framework]
	if !ok {
		return nil
	}
	if specs, ok := versions[version]; ok {
		return specs
	}
	if specs, ok := versions["default"]; ok {
		return specs
	}
	return versions["all"]
}

// checkType validates a raw string value against the declared type. It
// returns a message fragment and false on failure.
func checkType(flagType, value string) (string, bool) {
	switch flagType {
	case "integer":
		if !integerRe.MatchString(value) {
			return "is not a valid integer", false
		}
	case "float":
		if !floatRe.MatchString(value) {
			return "is not a valid float", false
		}
	case "boolean":
		if !booleanValues[strings.ToLower(value)] {
			return "is not a valid boolean (expected one of true, false, 0, 1, yes, no)", false
		}
	}
	// string, and unrecognized spec types, always pass
	return "", true
}

// checkRange enforces the inclusive [min, max] bounds for numeric types.
func checkRange(key, value string, spec FlagSpec) *Finding {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		// Unreachable after the type check, but a spec with a bad regex
		// interaction should not panic the run.
		return nil
	}

	if spec.Min != nil && parsed < *spec.Min {
		return &Finding{
			Key:      key,
			Message:  fmt.Sprintf("%s=%q is below the minimum %v", key, value, *spec.Min),
			Severity: SeverityError,
			Strategy: StrategyKnownFlags,
		}
	}
	if spec.Max != nil && parsed > *spec.Max {
		return &Finding{
			Key:      key,
			Message:  fmt.Sprintf("%s=%q exceeds the maximum %v", key, value, *spec.Max),
			Severity: SeverityError,
			Strategy: StrategyKnownFlags,
		}
	}
	return nil
}

func isNumeric(flagType string) bool {
	return flagType == "integer" || flagType == "float"
}

// sortedKeys returns the map keys sorted so findings are deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
