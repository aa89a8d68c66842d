package cli

import (
	"strings"
	"testing"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/plan"
)

func layeredPlan() *plan.Plan {
	c := deps.NewClosure()
	c.Add(&deps.Descriptor{
		Name:       "app",
		Repository: "https://repo.example.com",
		Version:    2,
		Hard:       []deps.Dep{{Name: "lib"}},
	})
	c.Add(&deps.Descriptor{Name: "lib", Version: 1})
	return plan.Order(c)
}

func TestFormatPlanText(t *testing.T) {
	got := formatPlanText(layeredPlan(), false)

	want := "layer 0:\n  lib\nlayer 1:\n  app\n"
	if got != want {
		t.Errorf("formatPlanText() = %q, want %q", got, want)
	}
}

func TestFormatPlanTextDetailed(t *testing.T) {
	got := formatPlanText(layeredPlan(), true)

	for _, part := range []string{"v2", "https://repo.example.com", "1 dep(s)"} {
		if !strings.Contains(got, part) {
			t.Errorf("detailed output missing %q:\n%s", part, got)
		}
	}
}

func TestFormatPlanTextResidual(t *testing.T) {
	c := deps.NewClosure()
	c.Add(&deps.Descriptor{Name: "a", Version: 1, Hard: []deps.Dep{{Name: "b"}}})
	c.Add(&deps.Descriptor{Name: "b", Version: 1, Hard: []deps.Dep{{Name: "a"}}})

	got := formatPlanText(plan.Order(c), false)

	want := "residual:\n  a\n  b\n"
	if got != want {
		t.Errorf("formatPlanText() = %q, want %q", got, want)
	}
}

func TestDescribePlanNodeUnknownVersion(t *testing.T) {
	d := &deps.Descriptor{Name: "bare", Version: deps.VersionUnknown}

	if got := describePlanNode(d); got != "bare" {
		t.Errorf("describePlanNode() = %q, want just the name", got)
	}
}
