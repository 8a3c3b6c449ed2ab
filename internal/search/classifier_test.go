package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".git"))
	assert.True(t, IsHidden(".bashrc"))
	assert.False(t, IsHidden("docs"))
	assert.False(t, IsHidden("report.txt"))
	assert.False(t, IsHidden(""))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden(".."))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		isDir    bool
		criteria Criteria
		want     bool
	}{
		{"empty query matches file", "anything.bin", false, Criteria{}, true},
		{"empty query skips dir by default", "photos", true, Criteria{}, false},
		{"empty query matches dir when allowed", "photos", true, Criteria{IncludeDirectories: true}, true},
		{"substring", "annual-report.txt", false, Criteria{Query: "report"}, true},
		{"case insensitive name", "REPORT.TXT", false, Criteria{Query: "report"}, true},
		{"case insensitive query", "report.txt", false, Criteria{Query: "RePoRt"}, true},
		{"no substring", "notes.txt", false, Criteria{Query: "report"}, false},
		{"extension hit", "archive.zip", false, Criteria{Extension: ".zip"}, true},
		{"extension case insensitive", "ARCHIVE.ZIP", false, Criteria{Extension: ".zip"}, true},
		{"extension miss", "archive.tar", false, Criteria{Extension: ".zip"}, false},
		{"extension without dot is a plain suffix", "archive.zip", false, Criteria{Extension: "zip"}, true},
		{"extension ignored for dirs", "archive.zip", true, Criteria{Extension: ".txt", IncludeDirectories: true}, true},
		{"dir with extension still needs includeDirs", "archive.zip", true, Criteria{Extension: ".zip"}, false},
		{"extension and query", "report.pdf", false, Criteria{Query: "report", Extension: ".txt"}, false},
		{"dir query match", "Reports", true, Criteria{Query: "report", IncludeDirectories: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.entry, tt.isDir, tt.criteria))
		})
	}
}

func TestClassifier_IsExcluded(t *testing.T) {
	p := filepath.FromSlash
	c := NewClassifier([]string{p("/proc"), p("/srv/backups/"), "  ", p("/proc")})

	assert.Equal(t, []string{p("/proc"), p("/srv/backups")}, c.ExcludedPaths())

	tests := []struct {
		path string
		want bool
	}{
		{"/proc", true},
		{"/proc/1/status", true},
		{"/processes", false},
		{"/srv/backups", true},
		{"/srv/backups/2024", true},
		{"/srv/backups-old", false},
		{"/srv", false},
		{"/home/user", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsExcluded(p(tt.path)))
		})
	}
}

func TestClassifier_Empty(t *testing.T) {
	c := NewClassifier(nil)
	assert.Empty(t, c.ExcludedPaths())
	assert.False(t, c.IsExcluded(filepath.FromSlash("/anything")))
}

func TestExcludeList(t *testing.T) {
	configured := []string{filepath.FromSlash("/data/cache")}

	assert.Equal(t, configured, ExcludeList(configured, false))

	withDefaults := ExcludeList(configured, true)
	assert.Subset(t, withDefaults, DefaultExcludedPaths())
	assert.Contains(t, withDefaults, configured[0])
}
