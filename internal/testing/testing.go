// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"

	"github.com/desertthunder/musicbridge/internal/models"
)

// MockService is a configurable test double for [services.Service].
//
// Each method delegates to the corresponding function field when set and
// counts invocations so tests can assert on call volume (or absence).
type MockService struct {
	ServiceName string

	AuthenticateFunc   func(ctx context.Context, credentials map[string]string) error
	ListPlaylistsFunc  func(ctx context.Context) ([]models.Playlist, error)
	ListTracksFunc     func(ctx context.Context, playlistID string) ([]models.Track, error)
	SearchTrackFunc    func(ctx context.Context, title, artist string) (*models.Track, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveTracksFunc   func(ctx context.Context, playlistID string, tracks []models.Track) error
	CreatePlaylistFunc func(ctx context.Context, title, description string) (*models.Playlist, error)
	DeletePlaylistFunc func(ctx context.Context, playlistID string) error

	ListPlaylistsCalls  int
	ListTracksCalls     int
	SearchTrackCalls    int
	AddTracksCalls      int
	RemoveTracksCalls   int
	CreatePlaylistCalls int
	DeletePlaylistCalls int
}

func (m *MockService) Name() string {
	if m.ServiceName != "" {
		return m.ServiceName
	}
	return "mock"
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockService) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.ListPlaylistsCalls++
	if m.ListPlaylistsFunc != nil {
		return m.ListPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockService) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.ListTracksCalls++
	if m.ListTracksFunc != nil {
		return m.ListTracksFunc(ctx, playlistID)
	}
	return []models.Track{}, nil
}

func (m *MockService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	m.SearchTrackCalls++
	if m.SearchTrackFunc != nil {
		return m.SearchTrackFunc(ctx, title, artist)
	}
	return nil, errors.New("no match")
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AddTracksCalls++
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	m.RemoveTracksCalls++
	if m.RemoveTracksFunc != nil {
		return m.RemoveTracksFunc(ctx, playlistID, tracks)
	}
	return nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, title, description string) (*models.Playlist, error) {
	m.CreatePlaylistCalls++
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, title, description)
	}
	return &models.Playlist{ID: "mock-playlist", Title: title, Description: description}, nil
}

func (m *MockService) DeletePlaylist(ctx context.Context, playlistID string) error {
	m.DeletePlaylistCalls++
	if m.DeletePlaylistFunc != nil {
		return m.DeletePlaylistFunc(ctx, playlistID)
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}
