package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_defaultPatterns(t *testing.T) {
	t.Parallel()
	records := []ChangeRecord{
		{Path: "main.go"},
		{Path: "go.sum"},
		{Path: "api/v1/service.pb.go"},
		{Path: "vendor/github.com/x/y.go"},
		{Path: "web/app.min.js"},
	}
	kept, excluded := Filter(records, nil)
	assert.Len(t, kept, 1)
	assert.Equal(t, "main.go", kept[0].Path)
	assert.ElementsMatch(t, []string{"go.sum", "api/v1/service.pb.go", "vendor/github.com/x/y.go", "web/app.min.js"}, excluded)
}

func TestFilter_customAndEmptyPatterns(t *testing.T) {
	t.Parallel()
	records := []ChangeRecord{{Path: "a.lock"}, {Path: "b.go"}}

	kept, excluded := Filter(records, []string{"*.lock"})
	assert.Equal(t, []ChangeRecord{{Path: "b.go"}}, kept)
	assert.Equal(t, []string{"a.lock"}, excluded)

	kept, excluded = Filter(records, []string{})
	assert.Len(t, kept, 2)
	assert.Empty(t, excluded)
}

func TestFilter_neverExcludesEverything(t *testing.T) {
	t.Parallel()
	records := []ChangeRecord{{Path: "go.sum"}}
	kept, excluded := Filter(records, nil)
	assert.Equal(t, records, kept)
	assert.Empty(t, excluded)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	tests := map[string]Status{
		"A":    StatusAdded,
		"M":    StatusModified,
		"D":    StatusDeleted,
		"R100": StatusRenamed,
		"C75":  StatusCopied,
		"T":    StatusModified,
		"":     StatusModified,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseStatus(in), "ParseStatus(%q)", in)
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()
	records := []ChangeRecord{{Path: "a.go", Status: StatusModified, Added: 1}}
	got := Merge(records, []PathStatus{
		{Path: "a.go", Status: StatusModified},
		{Path: "img.png", Status: StatusAdded},
		{Path: ""},
	})
	assert.Len(t, got, 2)
	assert.Equal(t, "img.png", got[1].Path)
	assert.Equal(t, StatusAdded, got[1].Status)
	assert.True(t, got[1].HasContent())
}

func TestChangeRecord_HasContent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rec  ChangeRecord
		want bool
	}{
		{"hunks", ChangeRecord{Hunks: []Hunk{{Header: "@@ -1 +1 @@"}}, Status: StatusModified}, true},
		{"binary", ChangeRecord{Binary: true, Status: StatusModified}, true},
		{"empty new file", ChangeRecord{Status: StatusAdded}, true},
		{"mode only", ChangeRecord{ModeOnly: true, Status: StatusModified}, false},
		{"bare modified", ChangeRecord{Status: StatusModified}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rec.HasContent())
		})
	}
}
