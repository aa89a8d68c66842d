package deps

import "testing"

func TestMergeOptions_Precedence(t *testing.T) {
	defaults := DefaultOptions()
	declared := InstallOptions{Method: MethodPrepend, Target: "sidebar"}
	perPackage := InstallOptions{Target: "toolbar"}
	global := InstallOptions{Bootstrap: Bool(false)}

	got := MergeOptions(defaults, declared, perPackage, global)

	if got.Method != MethodPrepend {
		t.Errorf("Method = %q, want %q (declared layer)", got.Method, MethodPrepend)
	}
	if got.Target != "toolbar" {
		t.Errorf("Target = %q, want %q (per-package layer)", got.Target, "toolbar")
	}
	if got.ShouldBootstrap() {
		t.Error("ShouldBootstrap() = true, want false (global layer)")
	}
}

func TestMergeOptions_UnsetLayersAreTransparent(t *testing.T) {
	got := MergeOptions(DefaultOptions(), InstallOptions{}, InstallOptions{}, InstallOptions{})

	if got.Method != MethodAppend {
		t.Errorf("Method = %q, want %q", got.Method, MethodAppend)
	}
	if !got.ShouldBootstrap() {
		t.Error("ShouldBootstrap() = false, want true")
	}
}

func TestInstallOptions_ShouldBootstrap(t *testing.T) {
	tests := []struct {
		name string
		opts InstallOptions
		want bool
	}{
		{"unset defaults to true", InstallOptions{}, true},
		{"explicit true", InstallOptions{Bootstrap: Bool(true)}, true},
		{"explicit false", InstallOptions{Bootstrap: Bool(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.ShouldBootstrap(); got != tt.want {
				t.Errorf("ShouldBootstrap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstallOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    InstallOptions
		wantErr bool
	}{
		{"zero value", InstallOptions{}, false},
		{"append", InstallOptions{Method: MethodAppend}, false},
		{"before with target", InstallOptions{Method: MethodBefore, Target: "core-lib"}, false},
		{"before without target", InstallOptions{Method: MethodBefore}, true},
		{"after without target", InstallOptions{Method: MethodAfter}, true},
		{"unknown method", InstallOptions{Method: "sideways"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInstallOptions_IsZero(t *testing.T) {
	if !(InstallOptions{}).IsZero() {
		t.Error("IsZero() = false for zero value, want true")
	}
	if (InstallOptions{Target: "sidebar"}).IsZero() {
		t.Error("IsZero() = true with Target set, want false")
	}
	if (InstallOptions{Bootstrap: Bool(false)}).IsZero() {
		t.Error("IsZero() = true with Bootstrap set, want false")
	}
}
