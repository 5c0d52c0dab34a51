// Package resolve computes effective configuration values from ranked
// sources and decides which parameters are worth asking about interactively.
package resolve

// Origin tags where a resolved parameter value came from.
type Origin string

const (
	// OriginExplicit is a value from non-interactive configuration (flags,
	// environment, config file). Authoritative; never prompts.
	OriginExplicit Origin = "explicit"

	// OriginPriorRun is a value carried over from a previous configuration
	// run of the same project.
	OriginPriorRun Origin = "prior-run"

	// OriginPrompted is a value obtained interactively.
	OriginPrompted Origin = "prompted"

	// OriginDefault is a computed default.
	OriginDefault Origin = "default"
)

// Parameter is one resolved configuration parameter. Parameters are created
// per configuration run and discarded afterwards.
type Parameter struct {
	Name       string
	Value      interface{}
	Origin     Origin
	Promptable bool
}

// Resolver resolves parameter values by source precedence. Promptability is
// a static attribute per parameter name, independent of whether a value
// exists anywhere.
type Resolver struct {
	promptable map[string]bool
}

// NewResolver creates a resolver with the given promptability table. Names
// absent from the table are not promptable.
func NewResolver(promptable map[string]bool) *Resolver {
	table := make(map[string]bool, len(promptable))
	for k, v := range promptable {
		table[k] = v
	}
	return &Resolver{promptable: table}
}

// Promptable reports whether the named parameter may be asked interactively.
func (r *Resolver) Promptable(name string) bool {
	return r.promptable[name]
}

// ShouldPrompt reports whether the named parameter should be asked about:
// it must be promptable and have no explicit value. Falsy explicit values
// (false, 0, "") are values and suppress the prompt; only a missing or nil
// entry leaves the prompt open.
func (r *Resolver) ShouldPrompt(name string, explicit map[string]interface{}) bool {
	return r.promptable[name] && !has(explicit, name)
}

// Resolve computes the effective value and origin for one parameter.
// Precedence, highest to lowest: explicit configuration, prior-run
// configuration, prompted answer, computed default. A source holds a value
// only if the entry exists and is non-nil; false, 0 and "" are present
// values and short-circuit lower-precedence sources. defaultFn may be nil,
// in which case the default value is nil.
func (r *Resolver) Resolve(name string, explicit, priorRun, prompted map[string]interface{}, defaultFn func() interface{}) Parameter {
	p := Parameter{Name: name, Promptable: r.promptable[name]}

	switch {
	case has(explicit, name):
		p.Value = explicit[name]
		p.Origin = OriginExplicit
	case has(priorRun, name):
		p.Value = priorRun[name]
		p.Origin = OriginPriorRun
	case has(prompted, name):
		p.Value = prompted[name]
		p.Origin = OriginPrompted
	default:
		if defaultFn != nil {
			p.Value = defaultFn()
		}
		p.Origin = OriginDefault
	}

	return p
}

// String returns the parameter value as a string, or empty when the value is
// nil or not a string.
func (p Parameter) String() string {
	s, _ := p.Value.(string)
	return s
}

// has reports whether the map holds a non-nil value for name. A key mapped
// to nil counts as absent; any other value, however falsy, counts as present.
func has(m map[string]interface{}, name string) bool {
	if m == nil {
		return false
	}
	v, ok := m[name]
	return ok && v != nil
}
