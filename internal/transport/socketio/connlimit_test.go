package socketio

import (
	"fmt"
	"testing"
)

func TestConnectionLimiterLoopbackNeverLimited(t *testing.T) {
	cl := NewConnectionLimiter(1)

	for i, ip := range []string{"127.0.0.1", "::1", "::ffff:127.0.0.1", "127.0.0.53"} {
		allowed, evicted := cl.TryAdd(fmt.Sprintf("local-%d", i), ip)
		if !allowed || evicted != "" {
			t.Errorf("loopback %s: allowed=%v evicted=%q", ip, allowed, evicted)
		}
	}
	if cl.External() != 0 {
		t.Errorf("External() = %d, want 0", cl.External())
	}
}

func TestConnectionLimiterEvictsOldestRemote(t *testing.T) {
	cl := NewConnectionLimiter(2)

	steps := []struct {
		id          string
		ip          string
		wantEvicted string
	}{
		{"tab-a", "192.168.1.10", ""},
		{"local", "127.0.0.1", ""},
		{"tab-b", "192.168.1.11", ""},
		{"tab-c", "10.0.0.5", "tab-a"},
		{"tab-d", "10.0.0.6", "tab-b"},
	}

	for _, s := range steps {
		allowed, evicted := cl.TryAdd(s.id, s.ip)
		if !allowed {
			t.Errorf("%s should be allowed", s.id)
		}
		if evicted != s.wantEvicted {
			t.Errorf("%s evicted %q, want %q", s.id, evicted, s.wantEvicted)
		}
	}
	if cl.External() != 2 {
		t.Errorf("External() = %d, want 2", cl.External())
	}
}

func TestConnectionLimiterDuplicateAddIsNoop(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("tab-a", "192.168.1.10")
	if _, evicted := cl.TryAdd("tab-a", "192.168.1.10"); evicted != "" {
		t.Errorf("re-adding a client evicted %q", evicted)
	}
	if cl.External() != 1 {
		t.Errorf("External() = %d, want 1", cl.External())
	}
}

func TestConnectionLimiterRemoveFreesSlot(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("tab-a", "192.168.1.10")
	cl.Remove("tab-a")
	cl.Remove("tab-a")
	cl.Remove("never-seen")

	if _, evicted := cl.TryAdd("tab-b", "192.168.1.11"); evicted != "" {
		t.Errorf("slot should be free after Remove, evicted %q", evicted)
	}
}

func TestConnectionLimiterEvictedClientCanRejoin(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("tab-a", "192.168.1.10")
	cl.TryAdd("tab-b", "192.168.1.11")

	// tab-a was evicted and forgotten, so it counts as new again
	if _, evicted := cl.TryAdd("tab-a", "192.168.1.10"); evicted != "tab-b" {
		t.Errorf("rejoin evicted %q, want tab-b", evicted)
	}
}

func TestIsLocalIP(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":        true,
		"::1":              true,
		"::ffff:127.0.0.1": true,
		"192.168.1.1":      false,
		"":                 false,
		"localhost":        false,
	}
	for ip, want := range tests {
		if got := isLocalIP(ip); got != want {
			t.Errorf("isLocalIP(%q) = %v, want %v", ip, got, want)
		}
	}
}
