package capability

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStaticMetadata(t *testing.T) {
	p := NewStatic(StaticConfig{
		Title:  "Station Name",
		Artist: "Host",
		Album:  "Morning Show",
	}, testLogger())

	if !p.ProvidesMetadata() {
		t.Fatal("Expected static provider to provide metadata")
	}

	tests := []struct {
		kind     MetadataKind
		expected string
	}{
		{kind: TrackTitle, expected: "Station Name"},
		{kind: TrackArtist, expected: "Host"},
		{kind: TrackAlbum, expected: "Morning Show"},
		{kind: AlbumArt, expected: ""},
	}

	for _, tt := range tests {
		if got := p.Metadata(tt.kind); got != tt.expected {
			t.Errorf("Metadata(%v) = %q, expected %q", tt.kind, got, tt.expected)
		}
	}
}

func TestStaticRemoteControl(t *testing.T) {
	enabled := NewStatic(StaticConfig{RemoteControl: true}, testLogger())
	if !enabled.SupportsRemoteControl() {
		t.Error("Expected remote control support")
	}
	if !enabled.HandleRemoteControl(PlayPause) {
		t.Error("Expected remote control action to report success")
	}

	disabled := NewStatic(StaticConfig{RemoteControl: false}, testLogger())
	if disabled.SupportsRemoteControl() {
		t.Error("Expected no remote control support")
	}
	if disabled.HandleRemoteControl(NextTrack) {
		t.Error("Expected remote control action to report failure")
	}
}

func TestStaticArtworkFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write artwork file: %v", err)
	}

	p := NewStatic(StaticConfig{ArtworkPath: path}, testLogger())
	expected := base64.StdEncoding.EncodeToString(buf.Bytes())
	if got := p.Metadata(AlbumArt); got != expected {
		t.Error("Expected artwork file contents base64-encoded")
	}
}

func TestStaticArtworkFileMissing(t *testing.T) {
	p := NewStatic(StaticConfig{ArtworkPath: "/does/not/exist.png"}, testLogger())
	if got := p.Metadata(AlbumArt); got != "" {
		t.Errorf("Expected empty artwork for a missing file, got %d bytes", len(got))
	}
}
