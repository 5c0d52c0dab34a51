package registry

import "fmt"

// Overlay returns a new map holding base with patch applied on top. Patch
// keys replace base keys of the same name. Neither input is mutated.
func Overlay(base, patch map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// ApplyFrameworkProfile returns the framework entry with the named profile
// overlaid. An empty profile name returns the base entry unchanged. The
// overlay is shallow: profile env vars win over base env vars key-by-key, and
// the profile's recommended instance list replaces the base list only when
// declared. The base entry is never mutated; applying the same profile twice
// is idempotent.
func ApplyFrameworkProfile(base *FrameworkEntry, profileName string) (*FrameworkEntry, error) {
	if profileName == "" {
		return base, nil
	}

	profile, ok := base.Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("framework %s %s has no profile %q", base.Name, base.Version, profileName)
	}

	effective := *base
	effective.EnvVars = Overlay(base.EnvVars, profile.EnvVars)
	if profile.RecommendedInstanceTypes != nil {
		effective.RecommendedInstanceTypes = append([]string(nil), profile.RecommendedInstanceTypes...)
	} else {
		effective.RecommendedInstanceTypes = append([]string(nil), base.RecommendedInstanceTypes...)
	}

	return &effective, nil
}

// ApplyModelProfile returns the model entry with the named profile overlaid,
// with the same semantics as ApplyFrameworkProfile. Model profiles carry only
// an env-var overlay; the merged map is returned alongside the entry since
// ModelEntry itself has no env-var field.
func ApplyModelProfile(base *ModelEntry, profileName string, envVars map[string]string) (map[string]string, error) {
	if profileName == "" {
		return envVars, nil
	}

	profile, ok := base.Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("model %s has no profile %q", base.ID, profileName)
	}

	return Overlay(envVars, profile.EnvVars), nil
}
