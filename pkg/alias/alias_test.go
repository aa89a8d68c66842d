package alias

import (
	"context"
	"testing"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewMemStore(), NewMemStore())
}

func TestRegistry_RegisterAndCandidates(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	if err := r.Register(ctx, Durable, "widgets", "https://a.example.com", "https://b.example.com"); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	got, err := r.Candidates(ctx, "widgets")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_URLPassesThrough(t *testing.T) {
	r := newTestRegistry()

	got, err := r.Candidates(context.Background(), "https://repo.example.com/widgets")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	if len(got) != 1 || got[0] != "https://repo.example.com/widgets" {
		t.Errorf("Candidates() = %v, want pass-through", got)
	}
}

func TestRegistry_UnknownAliasPassesThrough(t *testing.T) {
	r := newTestRegistry()

	got, err := r.Candidates(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	if len(got) != 1 || got[0] != "nowhere" {
		t.Errorf("Candidates() = %v, want literal pass-through", got)
	}
}

func TestRegistry_SessionShadowsDurable(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	if err := r.Register(ctx, Durable, "widgets", "https://durable.example.com"); err != nil {
		t.Fatalf("Register(durable) failed: %v", err)
	}
	if err := r.Register(ctx, Session, "widgets", "https://session.example.com"); err != nil {
		t.Fatalf("Register(session) failed: %v", err)
	}

	got, err := r.Candidates(ctx, "widgets")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	if len(got) != 1 || got[0] != "https://session.example.com" {
		t.Errorf("Candidates() = %v, want session scope to shadow durable", got)
	}

	// Dropping the session alias uncovers the durable one.
	if err := r.Unregister(ctx, Session, "widgets"); err != nil {
		t.Fatalf("Unregister() failed: %v", err)
	}
	got, _ = r.Candidates(ctx, "widgets")
	if len(got) != 1 || got[0] != "https://durable.example.com" {
		t.Errorf("Candidates() = %v, want durable target after session unregister", got)
	}
}

func TestRegistry_AliasChains(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Register(ctx, Durable, "mirror", "https://mirror.example.com")
	_ = r.Register(ctx, Durable, "widgets", "mirror", "https://origin.example.com")

	got, err := r.Candidates(ctx, "widgets")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	want := []string{"https://mirror.example.com", "https://origin.example.com"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}
}

func TestRegistry_AliasCycleFallsBack(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Register(ctx, Durable, "a", "b")
	_ = r.Register(ctx, Durable, "b", "a")

	got, err := r.Candidates(ctx, "a")
	if err != nil {
		t.Fatalf("Candidates() failed: %v", err)
	}
	// The cycle cannot expand; the literal target comes back.
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Candidates() = %v, want [b]", got)
	}
}

func TestRegistry_ListAndClear(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_ = r.Register(ctx, Durable, "widgets", "https://a.example.com")
	_ = r.Register(ctx, Durable, "tools", "https://b.example.com")

	table, err := r.List(ctx, Durable)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(table) != 2 {
		t.Errorf("List() = %d entries, want 2", len(table))
	}

	if err := r.Clear(ctx, Durable); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	table, _ = r.List(ctx, Durable)
	if len(table) != 0 {
		t.Errorf("List() after Clear() = %d entries, want 0", len(table))
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	tests := []struct {
		name    string
		alias   string
		targets []string
	}{
		{"empty alias", "", []string{"https://a.example.com"}},
		{"invalid alias", "my repo", []string{"https://a.example.com"}},
		{"no targets", "widgets", nil},
		{"blank target", "widgets", []string{" "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(ctx, Durable, tt.alias, tt.targets...); err == nil {
				t.Errorf("Register(%q, %v) = nil, want error", tt.alias, tt.targets)
			}
		})
	}
}

func TestRegistry_UnregisterMissingIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	if err := r.Unregister(context.Background(), Durable, "ghost"); err != nil {
		t.Errorf("Unregister(missing) = %v, want nil", err)
	}
}
