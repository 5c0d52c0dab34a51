package registry

import "fmt"

// CompatibilityResult is the verdict of checking an instance type against a
// framework's accelerator requirement. Business-rule violations land here as
// structured fields; nothing in the check is thrown as an error.
type CompatibilityResult struct {
	// Compatible reports whether the instance can run the framework.
	Compatible bool `json:"compatible"`

	// Error is the blocking reason when Compatible is false.
	Error string `json:"error,omitempty"`

	// Warning is a soft, non-blocking finding.
	Warning string `json:"warning,omitempty"`

	// Info is an informational note.
	Info string `json:"info,omitempty"`

	// Recommendations lists instance types the framework entry recommends.
	Recommendations []string `json:"recommendations,omitempty"`
}

// ValidateInstanceType checks the chosen instance type against the framework
// entry's accelerator requirement.
//
// Unknown instance or accelerator type mismatch is incompatible and carries
// the framework's recommendations. A required accelerator version missing
// from the instance's supported set is compatible with a warning; the caller
// decides how to surface it.
func (s *Store) ValidateInstanceType(instanceType string, fw *FrameworkEntry) CompatibilityResult {
	instance := s.LookupInstance(instanceType)
	if instance == nil {
		return CompatibilityResult{
			Compatible:      false,
			Error:           fmt.Sprintf("unknown instance type %q", instanceType),
			Recommendations: append([]string(nil), fw.RecommendedInstanceTypes...),
		}
	}

	if instance.Accelerator.Type != fw.Accelerator.Type {
		return CompatibilityResult{
			Compatible: false,
			Error: fmt.Sprintf("accelerator type mismatch: instance %s has %s, framework %s %s requires %s",
				instanceType, instance.Accelerator.Type, fw.Name, fw.Version, fw.Accelerator.Type),
			Recommendations: append([]string(nil), fw.RecommendedInstanceTypes...),
		}
	}

	if fw.Accelerator.Version != "" && len(instance.Accelerator.Versions) > 0 {
		if !containsString(instance.Accelerator.Versions, fw.Accelerator.Version) {
			return CompatibilityResult{
				Compatible: true,
				Warning: fmt.Sprintf("instance %s does not list %s %s among its supported versions %v; the framework image may need a different runtime",
					instanceType, fw.Accelerator.Type, fw.Accelerator.Version, instance.Accelerator.Versions),
			}
		}
	}

	result := CompatibilityResult{Compatible: true}
	if !containsString(fw.RecommendedInstanceTypes, instanceType) {
		result.Info = fmt.Sprintf("instance %s is compatible but not in the recommended list for %s %s",
			instanceType, fw.Name, fw.Version)
		result.Recommendations = append([]string(nil), fw.RecommendedInstanceTypes...)
	}
	return result
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
