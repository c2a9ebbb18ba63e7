package sites

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

const catalog = `
- id: kitt-peak
  name: Kitt Peak
  latitude: 31.9583
  longitude: 111.5967
  elevation: 2096
- name: "Cherry Springs State Park"
  latitude: 41.6626
  longitude: 77.8169
  elevation: 701
  dst: true
- name: ""
  latitude: 10
  longitude: 10
- name: Nowhere
  latitude: 95
  longitude: 0
- id: kitt-peak
  name: Kitt Peak again
  latitude: 31.9
  longitude: 111.6
`

func TestParse(t *testing.T) {
	list, err := Parse(strings.NewReader(catalog), testLogger())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, Site{ID: "kitt-peak", Name: "Kitt Peak", Latitude: 31.9583, Longitude: 111.5967, Elevation: 2096}, list[0])
	assert.Equal(t, "cherry-springs-state-park", list[1].ID)
	assert.True(t, list[1].DST)
}

func TestParse_Empty(t *testing.T) {
	list, err := Parse(strings.NewReader(""), testLogger())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader("- name: [unclosed"), testLogger())
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Kitt Peak", "kitt-peak"},
		{"  Mt. Wilson Observatory ", "mt-wilson-observatory"},
		{"Death Valley -- Badwater", "death-valley-badwater"},
		{"Ranch_42", "ranch_42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.catalog.Load())
	assert.Empty(t, s.List())
	_, ok := s.Lookup("kitt-peak")
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))
	require.NoError(t, s.Load(path, testLogger()))

	site, ok := s.Lookup("kitt-peak")
	require.True(t, ok)
	assert.Equal(t, 2096.0, site.Elevation)
	assert.Len(t, s.List(), 2)
	assert.Equal(t, path, s.catalog.Load().Source)

	assert.Error(t, s.Load(filepath.Join(t.TempDir(), "missing.yaml"), testLogger()))
}

func TestWatch_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))

	s := NewStore()
	require.NoError(t, s.Load(path, testLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, s, testLogger()) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// Rewrite until the watcher is registered and picks the change up.
	updated := "- name: Mauna Kea\n  latitude: 19.82\n  longitude: 155.47\n  elevation: 4205\n"
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
		time.Sleep(4 * settle)
		if _, ok := s.Lookup("mauna-kea"); ok {
			break
		}
	}
	_, ok := s.Lookup("mauna-kea")
	require.True(t, ok, "catalog was not reloaded")
	assert.Len(t, s.List(), 1)

	// A broken file keeps the previous catalog.
	require.NoError(t, os.WriteFile(path, []byte("- name: [unclosed"), 0o600))
	time.Sleep(4 * settle)
	_, ok = s.Lookup("mauna-kea")
	assert.True(t, ok)
}
