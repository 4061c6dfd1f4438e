package toolname

import "testing"

func TestMapping_NoCollisionPassesThrough(t *testing.T) {
	m := NewMapping([]string{"get_weather", "add"}, []string{"web_search"})

	if got := m.ToWire("get_weather"); got != "get_weather" {
		t.Errorf("expected unrewritten name, got %q", got)
	}
	if local, ok := m.ToLocal("get_weather"); !ok || local != "get_weather" {
		t.Errorf("expected round trip, got %q, ok=%v", local, ok)
	}
}

func TestMapping_RewritesColliding(t *testing.T) {
	m := NewMapping([]string{"web_search", "add"}, []string{"web_search"})

	wire := m.ToWire("web_search")
	if wire != "web_search__1" {
		t.Fatalf("expected rewrite to web_search__1, got %q", wire)
	}

	local, ok := m.ToLocal(wire)
	if !ok || local != "web_search" {
		t.Fatalf("expected reverse mapping to recover local name, got %q, ok=%v", local, ok)
	}
}

func TestMapping_DistinctWiresForCollidingLocals(t *testing.T) {
	// Both "search" and "search__1" are local tool names; "search" also
	// collides with a provider-native name. Every local tool must end up
	// with a distinct wire name that maps back to the right local name.
	m := NewMapping([]string{"search", "search__1"}, []string{"search"})

	wireSearch := m.ToWire("search")
	wireSearch1 := m.ToWire("search__1")

	if wireSearch == wireSearch1 {
		t.Fatalf("expected distinct wire names, both got %q", wireSearch)
	}

	if local, ok := m.ToLocal(wireSearch); !ok || local != "search" {
		t.Errorf("expected %q to map back to \"search\", got %q, ok=%v", wireSearch, local, ok)
	}
	if local, ok := m.ToLocal(wireSearch1); !ok || local != "search__1" {
		t.Errorf("expected %q to map back to \"search__1\", got %q, ok=%v", wireSearch1, local, ok)
	}
}

func TestMapping_UnknownNativeCallNotSurfaced(t *testing.T) {
	m := NewMapping([]string{"add"}, []string{"web_search"})

	_, ok := m.ToLocal("web_search")
	if ok {
		t.Error("expected provider-native server tool calls to never resolve through the map")
	}
}

func TestMapping_StablePerRequest(t *testing.T) {
	m := NewMapping([]string{"web_search", "add"}, []string{"web_search"})

	first := m.ToWire("web_search")
	second := m.ToWire("web_search")
	if first != second {
		t.Errorf("expected stable mapping across calls, got %q then %q", first, second)
	}
}
