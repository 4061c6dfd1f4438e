// Package toolname implements collision-safe rewriting between local
// function-tool names and the names actually sent to a provider. When a
// local tool's name collides with a name the provider injects natively
// (e.g. a built-in web_search tool), the colliding local name is rewritten
// to name__1, name__2, … before the request goes out, and translated back
// before any tool call reaches the caller.
package toolname

import "fmt"

// Mapping is a bidirectional, stable-per-request map between local tool
// names and the names actually placed on the wire. The zero value is
// ready to use.
type Mapping struct {
	localToNative map[string]string
	nativeToLocal map[string]string
}

// NewMapping builds a Mapping for localNames given the set of names the
// chosen provider will inject natively (nativeNames). Local names that do
// not collide pass through unchanged; colliding names are rewritten in the
// order they appear in localNames to name__1, name__2, … A name that is
// still unavailable after one suffix round (e.g. name__1 itself collides)
// keeps incrementing until free.
func NewMapping(localNames []string, nativeNames []string) *Mapping {
	reserved := make(map[string]bool, len(nativeNames))
	for _, n := range nativeNames {
		reserved[n] = true
	}

	m := &Mapping{
		localToNative: make(map[string]string, len(localNames)),
		nativeToLocal: make(map[string]string, len(localNames)),
	}

	used := make(map[string]bool, len(localNames))
	for _, n := range nativeNames {
		used[n] = true
	}

	for _, local := range localNames {
		wire := local
		if reserved[wire] || used[wire] {
			i := 1
			for {
				candidate := fmt.Sprintf("%s__%d", local, i)
				if !reserved[candidate] && !used[candidate] {
					wire = candidate
					break
				}
				i++
			}
		}
		used[wire] = true
		m.localToNative[local] = wire
		m.nativeToLocal[wire] = local
	}

	return m
}

// ToWire returns the name to place on the wire for a local tool name. If
// local was never registered with NewMapping, it is returned unchanged.
func (m *Mapping) ToWire(local string) string {
	if wire, ok := m.localToNative[local]; ok {
		return wire
	}
	return local
}

// ToLocal translates a name that came back from the provider into its
// local tool name. If wire was never registered as a rewritten name (e.g.
// it refers to a provider-native server tool), ok is false and callers
// must route the call into providerMetadata instead of surfacing it as a
// local tool call.
func (m *Mapping) ToLocal(wire string) (string, bool) {
	if local, ok := m.nativeToLocal[wire]; ok {
		return local, true
	}
	// Unrewritten names still resolve to themselves when they were
	// registered as a local tool without needing a rewrite.
	if mapped, isLocal := m.localToNative[wire]; isLocal && mapped == wire {
		return wire, true
	}
	return "", false
}
