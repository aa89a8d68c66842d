package deps

import "testing"

func TestParseRef(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind RefKind
		wantName string
		wantRepo string
		wantErr  bool
	}{
		{
			name:     "bare name",
			input:    "core-lib",
			wantKind: RefName,
			wantName: "core-lib",
		},
		{
			name:     "name at repository",
			input:    "https://repo.example.com/widgets #core-lib",
			wantKind: RefNameAt,
			wantName: "core-lib",
			wantRepo: "https://repo.example.com/widgets",
		},
		{
			name:     "name at repository without space",
			input:    "https://repo.example.com/widgets#core-lib",
			wantKind: RefNameAt,
			wantName: "core-lib",
			wantRepo: "https://repo.example.com/widgets",
		},
		{
			name:     "name at aliased repository",
			input:    "widgets #core-lib",
			wantKind: RefNameAt,
			wantName: "core-lib",
			wantRepo: "widgets",
		},
		{
			name:     "whole repository",
			input:    "https://repo.example.com/widgets",
			wantKind: RefRepo,
			wantRepo: "https://repo.example.com/widgets",
		},
		{
			name:     "surrounding whitespace",
			input:    "  core-lib  ",
			wantKind: RefName,
			wantName: "core-lib",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "separator without name", input: "https://repo.example.com #", wantErr: true},
		{name: "separator without repository", input: "#core-lib", wantErr: true},
		{name: "traversal in name", input: "../escape", wantErr: true},
		{name: "non-http repository scheme", input: "ftp://repo.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ref.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ref.Kind, tt.wantKind)
			}
			if ref.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", ref.Name, tt.wantName)
			}
			if ref.Repository != tt.wantRepo {
				t.Errorf("Repository = %q, want %q", ref.Repository, tt.wantRepo)
			}
		})
	}
}

func TestRefString(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
		want string
	}{
		{"bare name", NameRef("core-lib"), "core-lib"},
		{"whole repository", RepoRef("https://repo.example.com"), "https://repo.example.com"},
		{
			"name at repository",
			Ref{Kind: RefNameAt, Name: "core-lib", Repository: "https://repo.example.com"},
			"https://repo.example.com #core-lib",
		},
		{
			"spec without repository",
			Ref{Kind: RefSpec, Name: "core-lib"},
			"core-lib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDep(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantRepo string
		wantErr  bool
	}{
		{"bare name", "tokenizer", "tokenizer", "", false},
		{"pinned", "https://repo.example.com #tokenizer", "tokenizer", "https://repo.example.com", false},
		{"pinned no space", "https://repo.example.com#tokenizer", "tokenizer", "https://repo.example.com", false},
		{"empty", "", "", "", true},
		{"missing name", "https://repo.example.com #", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, err := ParseDep(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDep(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if dep.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", dep.Name, tt.wantName)
			}
			if dep.Repository != tt.wantRepo {
				t.Errorf("Repository = %q, want %q", dep.Repository, tt.wantRepo)
			}
		})
	}
}

func TestParseDeps_PreservesOrder(t *testing.T) {
	deps, err := ParseDeps([]string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("ParseDeps() failed: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, d := range deps {
		if d.Name != want[i] {
			t.Errorf("deps[%d].Name = %q, want %q", i, d.Name, want[i])
		}
	}
}
