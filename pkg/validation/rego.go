package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog"
)

// StrategyRegoPolicies is the registered name of the Rego policy strategy.
const StrategyRegoPolicies = "rego-policies"

// regoPolicy is one loaded policy file.
type regoPolicy struct {
	name    string
	source  string
	pkgName string
}

// regoInput is the input document handed to every policy.
type regoInput struct {
	Framework string            `json:"framework"`
	Version   string            `json:"version"`
	Env       map[string]string `json:"env"`
}

// RegoStrategy evaluates user-supplied Rego policies against the final
// environment-variable map. Policies report violations through a
// `deny contains violation` rule; a violation may be a plain string or an
// object with message/severity/key fields. Severity "error" blocks; anything
// else is a warning.
type RegoStrategy struct {
	policies []regoPolicy
	logger   zerolog.Logger
}

// NewRegoStrategy loads and parses every .rego file under the given paths.
// Parse failures abort the load; an empty path list yields a strategy that
// never fires.
func NewRegoStrategy(logger zerolog.Logger, paths []string) (*RegoStrategy, error) {
	s := &RegoStrategy{
		logger: logger.With().Str("component", "rego-strategy").Logger(),
	}

	files, err := collectRegoFiles(paths)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy %s: %w", file, err)
		}
		source := string(raw)

		if _, err := ast.ParseModule(file, source); err != nil {
			return nil, fmt.Errorf("failed to parse policy %s: %w", file, err)
		}

		s.policies = append(s.policies, regoPolicy{
			name:    filepath.Base(file),
			source:  source,
			pkgName: extractPackageName(source),
		})
	}

	s.logger.Debug().Int("policies", len(s.policies)).Msg("Rego policies loaded")

	return s, nil
}

// Name implements Strategy.
func (s *RegoStrategy) Name() string {
	return StrategyRegoPolicies
}

// Enabled implements Strategy. The strategy is only registered when the host
// configured policy paths, so it runs whenever the engine is enabled.
func (s *RegoStrategy) Enabled(opts Options) bool {
	return len(s.policies) > 0
}

// Validate evaluates each policy's deny set against the env-var map.
// Evaluation failures of a single policy degrade to a warning rather than
// aborting the run.
func (s *RegoStrategy) Validate(framework, version string, envVars map[string]string) ([]Finding, []Finding) {
	var warnings, errors []Finding

	input := regoInput{Framework: framework, Version: version, Env: envVars}

	for _, policy := range s.policies {
		query := fmt.Sprintf("data.%s.deny", policy.pkgName)

		r := rego.New(
			rego.Module(policy.name, policy.source),
			rego.Query(query),
			rego.Input(input),
		)

		results, err := r.Eval(context.Background())
		if err != nil {
			s.logger.Error().Err(err).Str("policy", policy.name).Msg("Policy evaluation failed")
			warnings = append(warnings, Finding{
				Key:      "",
				Message:  fmt.Sprintf("policy %s evaluation failed: %v", policy.name, err),
				Severity: SeverityWarning,
				Strategy: StrategyRegoPolicies,
			})
			continue
		}

		for _, result := range results {
			for _, expr := range result.Expressions {
				denySet, ok := expr.Value.([]interface{})
				if !ok {
					continue
				}
				for _, d := range denySet {
					finding := findingFromDeny(d)
					if finding.Severity == SeverityError {
						errors = append(errors, finding)
					} else {
						warnings = append(warnings, finding)
					}
				}
			}
		}
	}

	return warnings, errors
}

// findingFromDeny converts one deny result into a Finding.
func findingFromDeny(result interface{}) Finding {
	finding := Finding{
		Severity: SeverityWarning,
		Strategy: StrategyRegoPolicies,
	}

	switch v := result.(type) {
	case string:
		finding.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			finding.Message = msg
		}
		if sev, ok := v["severity"].(string); ok && Severity(sev) == SeverityError {
			finding.Severity = SeverityError
		}
		if key, ok := v["key"].(string); ok {
			finding.Key = key
		}
	default:
		finding.Message = fmt.Sprintf("%v", result)
	}

	return finding
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "envpolicy"
}

// collectRegoFiles gathers .rego files from files and directories, sorted
// for deterministic evaluation order.
func collectRegoFiles(paths []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("policy path %s: %w", p, err)
		}

		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".rego") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy path %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
