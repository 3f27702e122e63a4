package adapter

import (
	"errors"
	"strings"
	"testing"

	vibeerrors "github.com/zlink-cloudtech/spec-kit/internal/errors"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry(nil)

	names := r.Names()
	want := []string{"claude", "copilot"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestRegistryDefault(t *testing.T) {
	r := NewRegistry(nil)

	a, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if a.Name() != "copilot" {
		t.Errorf("default adapter = %s, want copilot", a.Name())
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Get("gemini")
	if err == nil {
		t.Fatal("expected error for unknown adapter")
	}
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeAdapterNotFound}) {
		t.Errorf("error code mismatch: %v", err)
	}
	if !strings.Contains(err.Error(), "claude, copilot") {
		t.Errorf("error should list registered adapters, got %q", err.Error())
	}
}

func TestRegistrySwallowsFactoryFailure(t *testing.T) {
	r := NewRegistry(nil)
	before := len(r.Names())

	r.Register(func() (Adapter, error) {
		return nil, errors.New("construction failed")
	})

	if got := len(r.Names()); got != before {
		t.Errorf("registry size changed after failed registration: %d -> %d", before, got)
	}
}

func TestRegistrySetDefault(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.SetDefault("claude"); err != nil {
		t.Fatalf("SetDefault(claude) error: %v", err)
	}
	a, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if a.Name() != "claude" {
		t.Errorf("default adapter = %s, want claude", a.Name())
	}

	if err := r.SetDefault("nope"); err == nil {
		t.Error("SetDefault(nope) should fail")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry(nil)

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(infos))
	}
	if infos[1].Name != "copilot" || !infos[1].Default {
		t.Errorf("copilot should be listed as default: %+v", infos[1])
	}
	if infos[0].Name != "claude" || infos[0].Default {
		t.Errorf("claude should not be default: %+v", infos[0])
	}
}
