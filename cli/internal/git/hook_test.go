package git

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteHook(t *testing.T) {
	t.Parallel()
	const template = "\n# Please enter the commit message for your changes.\n# On branch main\n"
	tests := []struct {
		name      string
		existing  *string
		wantWrote bool
		want      string
	}{
		{"template", ptr(template), true, "Add health check\n\n# Please enter the commit message for your changes.\n# On branch main\n"},
		{"empty file", ptr(""), true, "Add health check\n"},
		{"missing file", nil, true, "Add health check\n"},
		{"message from -m", ptr("Fix typo\n" + template), false, "Fix typo\n" + template},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0644); err != nil {
					t.Fatal(err)
				}
			}
			wrote, err := WriteHook(path, "Add health check\n")
			if err != nil {
				t.Fatalf("WriteHook: %v", err)
			}
			if wrote != tt.wantWrote {
				t.Errorf("WriteHook wrote = %v, want %v", wrote, tt.wantWrote)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("file = %q, want %q", got, tt.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }
