package dispatch

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"

	"github.com/skypro1111/airfoil-metadata-service/internal/capability"
)

// fakeProvider is a scriptable capability provider for dispatcher tests.
type fakeProvider struct {
	remoteControl   bool
	remoteSucceeds  bool
	metadata        bool
	values          map[capability.MetadataKind]string
	panicEverywhere bool

	handledKinds []capability.RemoteControlKind
}

func (f *fakeProvider) SupportsRemoteControl() bool {
	if f.panicEverywhere {
		panic("provider fault")
	}
	return f.remoteControl
}

func (f *fakeProvider) HandleRemoteControl(kind capability.RemoteControlKind) bool {
	if f.panicEverywhere {
		panic("provider fault")
	}
	f.handledKinds = append(f.handledKinds, kind)
	return f.remoteSucceeds
}

func (f *fakeProvider) ProvidesMetadata() bool {
	if f.panicEverywhere {
		panic("provider fault")
	}
	return f.metadata
}

func (f *fakeProvider) Metadata(kind capability.MetadataKind) string {
	if f.panicEverywhere {
		panic("provider fault")
	}
	return f.values[kind]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, p capability.Provider) *Dispatcher {
	t.Helper()
	d, err := New(p, testLogger(), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return d
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(nil, testLogger(), nil); err == nil {
		t.Fatal("Expected an error for a nil provider")
	}
}

func TestHandleCapabilityQueries(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		msg      string
		expected string
	}{
		{
			name:     "remote control supported",
			provider: &fakeProvider{remoteControl: true},
			msg:      "supportsRemoteControl",
			expected: "true",
		},
		{
			name:     "remote control unsupported",
			provider: &fakeProvider{remoteControl: false},
			msg:      "supportsRemoteControl",
			expected: "false",
		},
		{
			name:     "track data provided",
			provider: &fakeProvider{metadata: true},
			msg:      "providesTrackData",
			expected: "true",
		},
		{
			name:     "track data not provided",
			provider: &fakeProvider{metadata: false},
			msg:      "providesTrackData",
			expected: "false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, tt.provider)
			if got := d.Handle(tt.msg); got != tt.expected {
				t.Errorf("Handle(%q) = %q, expected %q", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestHandleRemoteControl(t *testing.T) {
	tests := []struct {
		name         string
		provider     *fakeProvider
		msg          string
		expected     string
		expectedKind []capability.RemoteControlKind
	}{
		{
			name:         "play pause success",
			provider:     &fakeProvider{remoteControl: true, remoteSucceeds: true},
			msg:          "remotePlayPause",
			expected:     "OK",
			expectedKind: []capability.RemoteControlKind{capability.PlayPause},
		},
		{
			name:         "next track success",
			provider:     &fakeProvider{remoteControl: true, remoteSucceeds: true},
			msg:          "remoteTrackNext",
			expected:     "OK",
			expectedKind: []capability.RemoteControlKind{capability.NextTrack},
		},
		{
			name:         "previous track success",
			provider:     &fakeProvider{remoteControl: true, remoteSucceeds: true},
			msg:          "remoteTrackPrevious",
			expected:     "OK",
			expectedKind: []capability.RemoteControlKind{capability.PreviousTrack},
		},
		{
			name:         "handler reports failure",
			provider:     &fakeProvider{remoteControl: true, remoteSucceeds: false},
			msg:          "remotePlayPause",
			expected:     "",
			expectedKind: []capability.RemoteControlKind{capability.PlayPause},
		},
		{
			name:     "unsupported skips the handler",
			provider: &fakeProvider{remoteControl: false, remoteSucceeds: true},
			msg:      "remotePlayPause",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, tt.provider)
			if got := d.Handle(tt.msg); got != tt.expected {
				t.Errorf("Handle(%q) = %q, expected %q", tt.msg, got, tt.expected)
			}

			if len(tt.provider.handledKinds) != len(tt.expectedKind) {
				t.Fatalf("Handler invoked %d times, expected %d",
					len(tt.provider.handledKinds), len(tt.expectedKind))
			}
			for i := range tt.expectedKind {
				if tt.provider.handledKinds[i] != tt.expectedKind[i] {
					t.Errorf("Handler kind %v, expected %v",
						tt.provider.handledKinds[i], tt.expectedKind[i])
				}
			}
		})
	}
}

func TestHandleMetadata(t *testing.T) {
	provider := &fakeProvider{
		metadata: true,
		values: map[capability.MetadataKind]string{
			capability.TrackTitle:  "Wish You Were Here",
			capability.TrackArtist: "Pink Floyd",
			capability.TrackAlbum:  "",
		},
	}
	d := newTestDispatcher(t, provider)

	tests := []struct {
		msg      string
		expected string
	}{
		{msg: "requestTrackTitle", expected: "Wish You Were Here"},
		{msg: "requestTrackArtist", expected: "Pink Floyd"},
		{msg: "requestTrackAlbum", expected: ""},
	}

	for _, tt := range tests {
		if got := d.Handle(tt.msg); got != tt.expected {
			t.Errorf("Handle(%q) = %q, expected %q", tt.msg, got, tt.expected)
		}
	}
}

func TestHandleMetadataUnsupported(t *testing.T) {
	provider := &fakeProvider{
		metadata: false,
		values:   map[capability.MetadataKind]string{capability.TrackTitle: "hidden"},
	}
	d := newTestDispatcher(t, provider)

	if got := d.Handle("requestTrackTitle"); got != "" {
		t.Errorf("Expected empty response without metadata support, got %q", got)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t, &fakeProvider{remoteControl: true, metadata: true})

	for _, msg := range []string{"", "bogus", "REQUESTTRACKTITLE", "requestTrackTitle "} {
		if got := d.Handle(msg); got != "" {
			t.Errorf("Handle(%q) = %q, expected empty response", msg, got)
		}
	}
}

func TestHandleAlbumArtNormalizesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	jpegB64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	provider := &fakeProvider{
		metadata: true,
		values:   map[capability.MetadataKind]string{capability.AlbumArt: jpegB64},
	}
	d := newTestDispatcher(t, provider)

	got := d.Handle("requestAlbumArt")
	if got == "" {
		t.Fatal("Expected normalized artwork, got empty response")
	}

	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("Response is not valid base64: %v", err)
	}
	_, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Response does not decode as an image: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected PNG artwork, got %s", format)
	}
}

func TestHandleAlbumArtEmptyStaysEmpty(t *testing.T) {
	provider := &fakeProvider{metadata: true, values: map[capability.MetadataKind]string{}}
	d := newTestDispatcher(t, provider)

	if got := d.Handle("requestAlbumArt"); got != "" {
		t.Errorf("Expected empty response for missing artwork, got %q", got)
	}
}

func TestHandleAlbumArtGarbageFailsClosed(t *testing.T) {
	provider := &fakeProvider{
		metadata: true,
		values:   map[capability.MetadataKind]string{capability.AlbumArt: "not an image at all"},
	}
	d := newTestDispatcher(t, provider)

	if got := d.Handle("requestAlbumArt"); got != "" {
		t.Errorf("Expected empty response for undecodable artwork, got %q", got)
	}
}

func TestHandleProviderPanicDegradesToEmptyResponse(t *testing.T) {
	msgs := []string{
		"supportsRemoteControl",
		"providesTrackData",
		"remotePlayPause",
		"requestTrackTitle",
		"requestAlbumArt",
	}

	for _, msg := range msgs {
		t.Run(msg, func(t *testing.T) {
			d := newTestDispatcher(t, &fakeProvider{panicEverywhere: true})

			got := d.Handle(msg)

			// Capability queries still answer with a literal; everything
			// else degrades to the empty response.
			switch msg {
			case "supportsRemoteControl", "providesTrackData":
				if got != "false" {
					t.Errorf("Handle(%q) = %q, expected \"false\"", msg, got)
				}
			default:
				if got != "" {
					t.Errorf("Handle(%q) = %q, expected empty response", msg, got)
				}
			}
		})
	}
}
