package registry

import (
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// Store holds the three registry tables. It is populated once by the Loader
// and is immutable for the duration of the run; lookups never mutate state
// and are safe for concurrent readers.
//
// The model table is kept as an ordered list of (matcher, entry) pairs so
// that wildcard match order is explicit and reproducible, rather than
// depending on map iteration order.
type Store struct {
	// frameworks maps "name@version" to its entry. No implicit version
	// fallback: an unmatched pair is a lookup miss.
	frameworks map[string]*FrameworkEntry

	// frameworkOrder preserves declared order for listing.
	frameworkOrder []string

	// modelExact maps exact (non-wildcard) model ids to entries.
	modelExact map[string]*ModelEntry

	// models is the full model table in declared order. Wildcard entries
	// carry a compiled matcher.
	models []modelPattern

	// instances maps instance type strings to entries.
	instances map[string]*InstanceEntry

	logger zerolog.Logger
}

// modelPattern pairs a model entry with its compiled wildcard matcher.
// matcher is nil for exact ids.
type modelPattern struct {
	key     string
	matcher glob.Glob
	entry   *ModelEntry
}

// WildcardMarker is the wildcard character recognized in model ids.
const WildcardMarker = "*"

// newStore builds a Store from validated registry tables. Wildcard model ids
// are compiled into anchored matchers here, once, in declared order.
func newStore(frameworks []FrameworkEntry, models []ModelEntry, instances []InstanceEntry, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		frameworks: make(map[string]*FrameworkEntry, len(frameworks)),
		modelExact: make(map[string]*ModelEntry, len(models)),
		models:     make([]modelPattern, 0, len(models)),
		instances:  make(map[string]*InstanceEntry, len(instances)),
		logger:     logger.With().Str("component", "registry").Logger(),
	}

	for i := range frameworks {
		fw := frameworks[i]
		key := frameworkKey(fw.Name, fw.Version)
		if _, exists := s.frameworks[key]; exists {
			return nil, &SchemaError{Table: "frameworks", Key: key, Err: errDuplicateKey}
		}
		s.frameworks[key] = &fw
		s.frameworkOrder = append(s.frameworkOrder, key)
	}

	for i := range models {
		m := models[i]
		mp := modelPattern{key: m.ID, entry: &m}
		if strings.Contains(m.ID, WildcardMarker) {
			matcher, err := glob.Compile(m.ID)
			if err != nil {
				return nil, &SchemaError{Table: "models", Key: m.ID, Err: err}
			}
			mp.matcher = matcher
		} else {
			if _, exists := s.modelExact[m.ID]; exists {
				return nil, &SchemaError{Table: "models", Key: m.ID, Err: errDuplicateKey}
			}
			s.modelExact[m.ID] = mp.entry
		}
		s.models = append(s.models, mp)
	}

	for i := range instances {
		inst := instances[i]
		if _, exists := s.instances[inst.Type]; exists {
			return nil, &SchemaError{Table: "instances", Key: inst.Type, Err: errDuplicateKey}
		}
		s.instances[inst.Type] = &inst
	}

	return s, nil
}

// LookupFramework returns the entry for the exact (name, version) pair, or
// nil when the pair is absent. There is no version fallback; the caller
// decides what a miss means.
func (s *Store) LookupFramework(name, version string) *FrameworkEntry {
	return s.frameworks[frameworkKey(name, version)]
}

// LookupModel returns the entry for the given model id. An exact id match is
// tried first; failing that, wildcard patterns are tried in declared order
// and the first match wins, even if a later pattern would match more
// specifically. Returns nil when nothing matches.
func (s *Store) LookupModel(id string) *ModelEntry {
	if entry, ok := s.modelExact[id]; ok {
		return entry
	}
	for _, mp := range s.models {
		if mp.matcher == nil {
			continue
		}
		if mp.matcher.Match(id) {
			return mp.entry
		}
	}
	return nil
}

// LookupInstance returns the entry for the given instance type, or nil when
// the type is absent.
func (s *Store) LookupInstance(instanceType string) *InstanceEntry {
	return s.instances[instanceType]
}

// FrameworkNames returns the distinct framework names in declared order.
func (s *Store) FrameworkNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(s.frameworkOrder))
	for _, key := range s.frameworkOrder {
		name, _, _ := strings.Cut(key, "@")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// FrameworkVersions returns the declared versions for a framework name, in
// declared order.
func (s *Store) FrameworkVersions(name string) []string {
	versions := make([]string, 0)
	for _, key := range s.frameworkOrder {
		n, v, _ := strings.Cut(key, "@")
		if n == name {
			versions = append(versions, v)
		}
	}
	return versions
}

// Models returns the model table in declared order.
func (s *Store) Models() []*ModelEntry {
	entries := make([]*ModelEntry, 0, len(s.models))
	for _, mp := range s.models {
		entries = append(entries, mp.entry)
	}
	return entries
}

// InstanceTypes returns the known instance type strings, sorted.
func (s *Store) InstanceTypes() []string {
	types := make([]string, 0, len(s.instances))
	for t := range s.instances {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// frameworkKey builds the unique key for a (framework, version) pair.
func frameworkKey(name, version string) string {
	return name + "@" + version
}
