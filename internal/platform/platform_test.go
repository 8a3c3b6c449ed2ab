package platform

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevealCommand(t *testing.T) {
	file := filepath.Join("home", "user", "report.txt")
	dir := filepath.Join("home", "user")

	tests := []struct {
		goos     string
		path     string
		isDir    bool
		wantName string
		wantArgs []string
	}{
		{"windows", file, false, "explorer", []string{"/select," + file}},
		{"darwin", file, false, "open", []string{"-R", file}},
		{"linux", file, false, "xdg-open", []string{dir}},
		{"linux", dir, true, "xdg-open", []string{dir}},
		{"freebsd", file, false, "xdg-open", []string{dir}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := revealCommand(tt.goos, tt.path, tt.isDir)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOpenCommand(t *testing.T) {
	name, args := openCommand("darwin", "http://127.0.0.1:7878")
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{"http://127.0.0.1:7878"}, args)

	name, _ = openCommand("linux", "http://127.0.0.1:7878")
	assert.Equal(t, "xdg-open", name)
}

func TestRevealInFileManager_Errors(t *testing.T) {
	err := RevealInFileManager(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	err = RevealInFileManager(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrPathNotFound)
}
