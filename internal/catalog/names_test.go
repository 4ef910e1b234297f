package catalog

import (
	"reflect"
	"testing"
)

func TestNormalizeNames(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{
			name:  "case-insensitive duplicates collapse to first spelling",
			input: []string{"Tom", "tom", " Tom "},
			want:  []string{"Tom"},
		},
		{
			name:  "blank entries dropped",
			input: []string{"", "  ", "Ana de Armas"},
			want:  []string{"Ana de Armas"},
		},
		{
			name:  "order preserved",
			input: []string{"B", "A", "b", "C"},
			want:  []string{"B", "A", "C"},
		},
		{
			name:  "mixed any list keeps strings only",
			input: []any{"Keanu Reeves", 42, nil, map[string]any{"x": 1}, "Carrie-Anne Moss"},
			want:  []string{"Keanu Reeves", "Carrie-Anne Moss"},
		},
		{
			name:  "name list",
			input: NameList{"Lana Wachowski", "LANA WACHOWSKI"},
			want:  []string{"Lana Wachowski"},
		},
		{
			name:  "string is unsupported",
			input: "Tom Hanks",
			want:  []string{},
		},
		{
			name:  "nil is unsupported",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeNames(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeNames() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeNames_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"Tom", "tom", " Tom "},
		{" A ", "b", "B", "", "c "},
		{},
	}

	for _, input := range inputs {
		once := NormalizeNames(input)
		twice := NormalizeNames(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("NormalizeNames not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestNameKey(t *testing.T) {
	if got := NameKey("  Tom HANKS "); got != "tom hanks" {
		t.Errorf("NameKey() = %q, want %q", got, "tom hanks")
	}
}
