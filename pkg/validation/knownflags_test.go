package validation

import (
	"strings"
	"testing"
)

func float64p(f float64) *float64 { return &f }

func testFlagsValidator() *KnownFlagsValidator {
	return NewKnownFlagsValidatorFromTable(map[string]map[string]map[string]FlagSpec{
		"vllm": {
			"0.4.0": {
				"VLLM_MAX_NUM_SEQS": {
					Type: "integer", Min: float64p(1), Max: float64p(4096),
				},
				"VLLM_GPU_MEMORY_UTILIZATION": {
					Type: "float", Min: float64p(0), Max: float64p(1),
				},
				"VLLM_USE_V1": {
					Type: "boolean",
				},
				"VLLM_LOGGING_LEVEL": {
					Type: "string",
				},
				"VLLM_WORKER_USE_RAY": {
					Type: "boolean", Deprecated: true, Replacement: "VLLM_USE_RAY_SPMD_WORKER",
				},
			},
			"default": {
				"VLLM_LOGGING_LEVEL": {Type: "string"},
			},
		},
	})
}

func TestKnownFlagsValidValue(t *testing.T) {
	v := testFlagsValidator()

	warnings, errors := v.Validate("vllm", "0.4.0", map[string]string{
		"VLLM_MAX_NUM_SEQS": "256",
	})
	if len(warnings) != 0 || len(errors) != 0 {
		t.Errorf("expected no findings for a valid integer, got warnings=%v errors=%v", warnings, errors)
	}
}

func TestKnownFlagsIntegerTypeFailureSkipsRange(t *testing.T) {
	v := testFlagsValidator()

	// A non-integer value is a single type error; no range finding may follow.
	warnings, errors := v.Validate("vllm", "0.4.0", map[string]string{
		"VLLM_MAX_NUM_SEQS": "2.5",
	})
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", errors)
	}
	if !strings.Contains(errors[0].Message, "not a valid integer") {
		t.Errorf("expected a type error, got %q", errors[0].Message)
	}
}

func TestKnownFlagsRangeBounds(t *testing.T) {
	v := testFlagsValidator()

	tests := []struct {
		name     string
		key      string
		value    string
		wantErrs int
		fragment string
	}{
		{"below minimum", "VLLM_MAX_NUM_SEQS", "0", 1, "below the minimum"},
		{"above maximum", "VLLM_MAX_NUM_SEQS", "5000", 1, "exceeds the maximum"},
		{"at minimum", "VLLM_MAX_NUM_SEQS", "1", 0, ""},
		{"at maximum", "VLLM_MAX_NUM_SEQS", "4096", 0, ""},
		{"float in range", "VLLM_GPU_MEMORY_UTILIZATION", "0.95", 0, ""},
		{"float above maximum", "VLLM_GPU_MEMORY_UTILIZATION", "1.5", 1, "exceeds the maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errors := v.Validate("vllm", "0.4.0", map[string]string{tt.key: tt.value})
			if len(errors) != tt.wantErrs {
				t.Fatalf("errors = %v, want %d", errors, tt.wantErrs)
			}
			if tt.wantErrs > 0 && !strings.Contains(errors[0].Message, tt.fragment) {
				t.Errorf("message %q missing %q", errors[0].Message, tt.fragment)
			}
		})
	}
}

func TestKnownFlagsBoolean(t *testing.T) {
	v := testFlagsValidator()

	for _, good := range []string{"true", "false", "0", "1", "yes", "no", "TRUE", "Yes"} {
		_, errors := v.Validate("vllm", "0.4.0", map[string]string{"VLLM_USE_V1": good})
		if len(errors) != 0 {
			t.Errorf("value %q should be a valid boolean: %v", good, errors)
		}
	}

	_, errors := v.Validate("vllm", "0.4.0", map[string]string{"VLLM_USE_V1": "maybe"})
	if len(errors) != 1 {
		t.Errorf("expected boolean type error for 'maybe', got %v", errors)
	}
}

func TestKnownFlagsUnknownVariableIsWarning(t *testing.T) {
	v := testFlagsValidator()

	warnings, errors := v.Validate("vllm", "0.4.0", map[string]string{
		"MY_CUSTOM_FLAG": "whatever",
	})
	if len(errors) != 0 {
		t.Errorf("unknown variables must never be errors: %v", errors)
	}
	if len(warnings) != 1 || warnings[0].Key != "MY_CUSTOM_FLAG" {
		t.Errorf("expected one unknown-flag warning, got %v", warnings)
	}
	if warnings[0].Strategy != StrategyKnownFlags {
		t.Errorf("strategy = %q, want %q", warnings[0].Strategy, StrategyKnownFlags)
	}
}

func TestKnownFlagsDeprecation(t *testing.T) {
	v := testFlagsValidator()

	warnings, errors := v.Validate("vllm", "0.4.0", map[string]string{
		"VLLM_WORKER_USE_RAY": "true",
	})
	if len(errors) != 0 {
		t.Errorf("deprecated flags are warnings, got errors %v", errors)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected deprecation + replacement warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0].Message, "deprecated") {
		t.Errorf("first warning %q", warnings[0].Message)
	}
	if !strings.Contains(warnings[1].Message, "VLLM_USE_RAY_SPMD_WORKER") {
		t.Errorf("second warning %q", warnings[1].Message)
	}
}

func TestKnownFlagsVersionFallback(t *testing.T) {
	v := testFlagsValidator()

	// An uncatalogued version falls back to the default bucket, where only
	// VLLM_LOGGING_LEVEL is known.
	warnings, errors := v.Validate("vllm", "0.9.9", map[string]string{
		"VLLM_LOGGING_LEVEL": "DEBUG",
		"VLLM_MAX_NUM_SEQS":  "256",
	})
	if len(errors) != 0 {
		t.Errorf("unexpected errors: %v", errors)
	}
	if len(warnings) != 1 || warnings[0].Key != "VLLM_MAX_NUM_SEQS" {
		t.Errorf("expected only the off-bucket flag to warn, got %v", warnings)
	}
}

func TestKnownFlagsUnknownFramework(t *testing.T) {
	v := testFlagsValidator()

	warnings, errors := v.Validate("unknown-fw", "1.0.0", map[string]string{
		"SOME_FLAG": "1",
	})
	if len(errors) != 0 {
		t.Errorf("unexpected errors: %v", errors)
	}
	// Nothing is catalogued, so everything is an unknown-flag warning.
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
}

func TestKnownFlagsDeterministicOrder(t *testing.T) {
	v := testFlagsValidator()

	env := map[string]string{
		"ZZZ_FLAG": "1",
		"AAA_FLAG": "1",
	}
	warnings, _ := v.Validate("vllm", "0.4.0", env)
	if len(warnings) != 2 || warnings[0].Key != "AAA_FLAG" || warnings[1].Key != "ZZZ_FLAG" {
		t.Errorf("findings must be sorted by key, got %v", warnings)
	}
}

func TestEmbeddedKnownFlagsLoad(t *testing.T) {
	v, err := NewKnownFlagsValidator()
	if err != nil {
		t.Fatalf("failed to load embedded known flags: %v", err)
	}

	_, errors := v.Validate("vllm", "0.4.0", map[string]string{
		"VLLM_GPU_MEMORY_UTILIZATION": "0.90",
	})
	if len(errors) != 0 {
		t.Errorf("embedded registry rejected a default value: %v", errors)
	}
}
