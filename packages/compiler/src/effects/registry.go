package effects

import (
	"encoding/json"
	"fmt"
)

// FnKind names the runtime function that executes an effect
type FnKind int

const (
	FnKindUnknown FnKind = iota
	FnKindBinding
	FnKindCompute
	FnKindObserver
	FnKindMethodObserver
	FnKindNotify
	FnKindReflect
	FnKindReadOnly
	FnKindPropagate
	FnKindHostProp
)

var fnKindTokens = map[FnKind]string{
	FnKindBinding:        "binding",
	FnKindCompute:        "compute",
	FnKindObserver:       "observer",
	FnKindMethodObserver: "method",
	FnKindNotify:         "notify",
	FnKindReflect:        "reflect",
	FnKindReadOnly:       "readOnly",
	FnKindPropagate:      "propagate",
	FnKindHostProp:       "hostProp",
}

// Token returns the short symbol the kind is emitted as
func (k FnKind) Token() string {
	return fnKindTokens[k]
}

// String returns the string representation of the kind
func (k FnKind) String() string {
	if token, ok := fnKindTokens[k]; ok {
		return token
	}
	return "unknown"
}

// FnKindForToken resolves an emitted token back to its kind
func FnKindForToken(token string) (FnKind, bool) {
	for kind, t := range fnKindTokens {
		if t == token {
			return kind, true
		}
	}
	return FnKindUnknown, false
}

// FnRef references the function of an effect. Records built in Go set Kind;
// records decoded from a runtime dump only carry Raw until resolved.
type FnRef struct {
	Kind FnKind
	Raw  string
}

// Resolved reports whether the reference has a known kind
func (f FnRef) Resolved() bool {
	return f.Kind != FnKindUnknown
}

// UnmarshalJSON decodes the runtime's function identifier
func (f *FnRef) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("effect function must be a string identifier: %w", err)
	}
	*f = FnRef{Raw: raw}
	return nil
}

// Registry maps the runtime's function identifiers to effect kinds.
// It is built once per process and read concurrently.
type Registry struct {
	namespace string
	kinds     map[string]FnKind
}

// NewRegistry creates a Registry whose tokens are emitted under namespace
func NewRegistry(namespace string, kinds map[string]FnKind) *Registry {
	r := &Registry{namespace: namespace, kinds: make(map[string]FnKind, len(kinds))}
	for id, kind := range kinds {
		r.kinds[id] = kind
	}
	return r
}

// DefaultRegistry knows the effect functions of the stock runtime
func DefaultRegistry(namespace string) *Registry {
	return NewRegistry(namespace, map[string]FnKind{
		"runBindingEffect":   FnKindBinding,
		"runComputedEffect":  FnKindCompute,
		"runObserverEffect":  FnKindObserver,
		"runMethodEffect":    FnKindMethodObserver,
		"runNotifyEffect":    FnKindNotify,
		"runReflectEffect":   FnKindReflect,
		"runReadOnlyEffect":  FnKindReadOnly,
		"runPropagateEffect": FnKindPropagate,
		"runHostPropEffect":  FnKindHostProp,
	})
}

// Namespace returns the prefix emitted before function tokens
func (r *Registry) Namespace() string {
	return r.namespace
}

// Resolve returns the kind registered for a raw identifier
func (r *Registry) Resolve(raw string) (FnKind, bool) {
	kind, ok := r.kinds[raw]
	return kind, ok
}

// ResolveToken maps an emitted `namespace.token` reference back to a kind
func (r *Registry) ResolveToken(namespace, token string) (FnKind, bool) {
	if namespace != r.namespace {
		return FnKindUnknown, false
	}
	return FnKindForToken(token)
}
