package host

import (
	"context"
	"errors"
	"testing"

	"github.com/gantryhq/gantry/pkg/deps"
	gerrors "github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/repo"
)

func bun(name string, version int) *repo.Bundle {
	return &repo.Bundle{
		Descriptor: &deps.Descriptor{
			Name:       name,
			Repository: "https://repo.example.com",
			Version:    version,
		},
		Content: "payload-" + name,
	}
}

func TestMemHost_AttachPlacement(t *testing.T) {
	h := NewMemHost()
	ctx := context.Background()

	steps := []struct {
		name string
		opts deps.InstallOptions
	}{
		{"A", deps.InstallOptions{}},
		{"B", deps.InstallOptions{Method: deps.MethodPrepend}},
		{"C", deps.InstallOptions{Method: deps.MethodBefore, Target: "A"}},
		{"D", deps.InstallOptions{Method: deps.MethodAfter, Target: "A"}},
		{"E", deps.InstallOptions{Method: deps.MethodBefore, Target: "missing"}},
	}
	for _, s := range steps {
		if err := h.Attach(ctx, bun(s.name, 1), s.opts); err != nil {
			t.Fatalf("Attach(%s) failed: %v", s.name, err)
		}
	}

	want := []string{"B", "C", "A", "D", "E"}
	got := h.Order()
	if len(got) != len(want) {
		t.Fatalf("Order() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Order()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemHost_ReattachKeepsPosition(t *testing.T) {
	h := NewMemHost()
	ctx := context.Background()

	_ = h.Attach(ctx, bun("A", 1), deps.InstallOptions{})
	_ = h.Attach(ctx, bun("B", 1), deps.InstallOptions{})
	_ = h.Attach(ctx, bun("A", 2), deps.InstallOptions{Method: deps.MethodPrepend})

	got := h.Order()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Order() = %v, want [A B]", got)
	}
	inst, ok := h.Lookup("A")
	if !ok || inst.Version != 2 {
		t.Errorf("Lookup(A) = %+v, want replaced payload with version 2", inst)
	}
	if h.AttachCount("A") != 2 {
		t.Errorf("AttachCount(A) = %d, want 2", h.AttachCount("A"))
	}
}

func TestMemHost_ActivateOnce(t *testing.T) {
	h := NewMemHost()
	ctx := context.Background()

	var runs int
	h.Activator = func(_ context.Context, content string, _ Capabilities) error {
		runs++
		if content != "payload-A" {
			t.Errorf("activator got content %q, want payload-A", content)
		}
		return nil
	}

	_ = h.Attach(ctx, bun("A", 1), deps.InstallOptions{})
	if err := h.Activate(ctx, "A", Capabilities{}); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if err := h.Activate(ctx, "A", Capabilities{}); err != nil {
		t.Fatalf("second Activate() failed: %v", err)
	}

	if runs != 1 {
		t.Errorf("activator ran %d times, want 1", runs)
	}
	if h.ActivateCount("A") != 1 {
		t.Errorf("ActivateCount(A) = %d, want 1", h.ActivateCount("A"))
	}
	if !h.Activated("A") {
		t.Error("Activated(A) = false, want true")
	}
}

func TestMemHost_ActivateUnattached(t *testing.T) {
	h := NewMemHost()
	err := h.Activate(context.Background(), "ghost", Capabilities{})
	if gerrors.GetCode(err) != gerrors.ErrCodeActivation {
		t.Errorf("error = %v, want ACTIVATION_FAILED", err)
	}
}

func TestMemHost_ActivationFailureLeavesMarkerUnset(t *testing.T) {
	h := NewMemHost()
	ctx := context.Background()
	h.FailActivate = func(name string) error { return errors.New("boom") }

	_ = h.Attach(ctx, bun("A", 1), deps.InstallOptions{})
	if err := h.Activate(ctx, "A", Capabilities{}); err == nil {
		t.Fatal("Activate() = nil, want error")
	}
	if h.Activated("A") {
		t.Error("Activated(A) = true after failed activation, want false")
	}

	// A later attempt can still succeed.
	h.FailActivate = nil
	if err := h.Activate(ctx, "A", Capabilities{}); err != nil {
		t.Fatalf("retry Activate() failed: %v", err)
	}
	if !h.Activated("A") {
		t.Error("Activated(A) = false after retry, want true")
	}
}

func TestMemHost_FailAttach(t *testing.T) {
	h := NewMemHost()
	h.FailAttach = func(name string) error {
		if name == "bad" {
			return errors.New("no room")
		}
		return nil
	}

	ctx := context.Background()
	if err := h.Attach(ctx, bun("bad", 1), deps.InstallOptions{}); gerrors.GetCode(err) != gerrors.ErrCodeAttach {
		t.Errorf("error = %v, want ATTACH_FAILED", err)
	}
	if err := h.Attach(ctx, bun("good", 1), deps.InstallOptions{}); err != nil {
		t.Errorf("Attach(good) failed: %v", err)
	}
	if _, ok := h.Lookup("bad"); ok {
		t.Error("failed attach left the package installed")
	}
}

func TestMemHost_Detach(t *testing.T) {
	h := NewMemHost()
	ctx := context.Background()

	_ = h.Attach(ctx, bun("A", 1), deps.InstallOptions{})
	if err := h.Detach(ctx, "A"); err != nil {
		t.Fatalf("Detach() failed: %v", err)
	}
	if _, ok := h.Lookup("A"); ok {
		t.Error("Lookup(A) = true after detach")
	}
	if len(h.Order()) != 0 {
		t.Errorf("Order() = %v, want empty", h.Order())
	}
	if err := h.Detach(ctx, "A"); err != nil {
		t.Errorf("Detach(missing) = %v, want nil", err)
	}
}
