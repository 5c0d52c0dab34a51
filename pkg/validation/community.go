package validation

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// StrategyCommunityReports is the registered name of the community reports
// strategy.
const StrategyCommunityReports = "community-reports"

// Report is one community-sourced report about an environment variable.
// Exactly one of Variable or Pattern selects the variables it applies to.
type Report struct {
	// Variable matches a key exactly.
	Variable string `yaml:"variable,omitempty"`

	// Pattern is a regular expression matched against keys.
	Pattern string `yaml:"pattern,omitempty"`

	// Description is what the community observed.
	Description string `yaml:"description"`

	// ReportedBy attributes the report.
	ReportedBy string `yaml:"reportedBy"`

	// Severity is warning (the default) or error.
	Severity Severity `yaml:"severity,omitempty"`
}

// compiledReport pairs a report with its compiled pattern, when it has one.
type compiledReport struct {
	report  Report
	pattern *regexp.Regexp
}

// communityReportsFile is the on-disk shape of the community reports table.
type communityReportsFile struct {
	Frameworks map[string]struct {
		Versions map[string]struct {
			Reports []Report `yaml:"reports"`
		} `yaml:"versions"`
	} `yaml:"frameworks"`
}

// CommunityReportsValidator surfaces community-sourced reports about
// environment variables for a (framework, version) pair.
type CommunityReportsValidator struct {
	// table is framework -> version (or "all") -> compiled reports.
	table map[string]map[string][]compiledReport
}

// NewCommunityReportsValidator loads the embedded community reports table.
func NewCommunityReportsValidator() (*CommunityReportsValidator, error) {
	raw, err := dataFS.ReadFile("data/community_reports.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read community reports: %w", err)
	}
	return NewCommunityReportsValidatorFromYAML(raw)
}

// NewCommunityReportsValidatorFromYAML parses a community reports document.
// Report patterns are compiled here; a bad pattern fails the load rather
// than a later run.
func NewCommunityReportsValidatorFromYAML(raw []byte) (*CommunityReportsValidator, error) {
	var file communityReportsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse community reports: %w", err)
	}

	table := make(map[string]map[string][]compiledReport, len(file.Frameworks))
	for fw, body := range file.Frameworks {
		versions := make(map[string][]compiledReport, len(body.Versions))
		for version, v := range body.Versions {
			compiled := make([]compiledReport, 0, len(v.Reports))
			for _, report := range v.Reports {
				cr := compiledReport{report: report}
				if report.Pattern != "" {
					re, err := regexp.Compile(report.Pattern)
					if err != nil {
						return nil, fmt.Errorf("bad report pattern %q for %s %s: %w", report.Pattern, fw, version, err)
					}
					cr.pattern = re
				}
				compiled = append(compiled, cr)
			}
			versions[version] = compiled
		}
		table[fw] = versions
	}

	return &CommunityReportsValidator{table: table}, nil
}

// Name implements Strategy.
func (v *CommunityReportsValidator) Name() string {
	return StrategyCommunityReports
}

// Enabled implements Strategy.
func (v *CommunityReportsValidator) Enabled(opts Options) bool {
	return opts.UseCommunityReports
}

// Validate selects reports for the exact (framework, version) pair, falling
// back to the framework's "all" bucket, and emits one finding per report
// that matches a variable either by exact name or by pattern. Reports are
// warnings unless they declare error severity.
func (v *CommunityReportsValidator) Validate(framework, version string, envVars map[string]string) ([]Finding, []Finding) {
	var warnings, errors []Finding

	reports := v.reportsFor(framework, version)
	if len(reports) == 0 {
		return nil, nil
	}

	for _, key := range sortedKeys(envVars) {
		for _, cr := range reports {
			if !cr.matches(key) {
				continue
			}

			severity := cr.report.Severity
			if severity != SeverityError {
				severity = SeverityWarning
			}

			finding := Finding{
				Key: key,
				Message: fmt.Sprintf("%s: %s (reported by %s)",
					key, cr.report.Description, cr.report.ReportedBy),
				Severity: severity,
				Strategy: StrategyCommunityReports,
			}
			if severity == SeverityError {
				errors = append(errors, finding)
			} else {
				warnings = append(warnings, finding)
			}
		}
	}

	return warnings, errors
}

// reportsFor selects reports for a (framework, version) pair with the "all"
// bucket as fallback.
func (v *CommunityReportsValidator) reportsFor(framework, version string) []compiledReport {
	versions, ok := v.table[framework]
	if !ok {
		return nil
	}
	if reports, ok := versions[version]; ok {
		return reports
	}
	return versions["all"]
}

// matches reports whether this report applies to the given variable name.
func (cr compiledReport) matches(key string) bool {
	if cr.report.Variable != "" {
		return cr.report.Variable == key
	}
	if cr.pattern != nil {
		return cr.pattern.MatchString(key)
	}
	return false
}
