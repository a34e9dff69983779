// package tasks implements the reconciliation and synchronization engine.
//
// The core abstraction is Engine, which orchestrates library scans, duplicate
// removal, cross-service syncs, and playlist sort/restore utilities on top of
// the catalog store. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/services"
	"github.com/desertthunder/musicbridge/internal/shared"
	"golang.org/x/time/rate"
)

// Engine orchestrates catalog and cross-service operations.
//
// Source is the service of record (the library being mirrored); target is
// the service playlists are synced to. The catalog store always mirrors the
// source side.
type Engine struct {
	source services.Service
	target services.Service
	store  *catalog.Store
	config *shared.Config
	logger *log.Logger
}

// NewEngine creates an Engine with the provided services and catalog store.
// The target may be nil for catalog-only operations (scan, dedupe, sort).
func NewEngine(source, target services.Service, store *catalog.Store, config *shared.Config, logger *log.Logger) *Engine {
	if config == nil {
		config = shared.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		source: source,
		target: target,
		store:  store,
		config: config,
		logger: logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (e *Engine) requireSource() error {
	if e.source == nil {
		return fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (e *Engine) requireTarget() error {
	if e.target == nil {
		return fmt.Errorf("%w: target service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (e *Engine) requireStore() error {
	if e.store == nil {
		return fmt.Errorf("%w: catalog store not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// resolvePlaylist looks up a playlist in the catalog by ID, falling back to
// an exact title match so CLI users can name playlists either way.
func (e *Engine) resolvePlaylist(idOrTitle string) (*models.Playlist, error) {
	if idOrTitle == "" {
		return nil, fmt.Errorf("%w: playlist id or title", shared.ErrMissingArgument)
	}

	playlist, err := e.store.Playlist(idOrTitle)
	if err == nil {
		return playlist, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil, err
	}

	return e.store.PlaylistByTitle(idOrTitle)
}

// resolveRemotePlaylist resolves an ID or title against the remote listing
// instead of the catalog, for operations that must not trust the cache.
func resolveRemotePlaylist(ctx context.Context, svc services.Service, idOrTitle string) (*models.Playlist, error) {
	if idOrTitle == "" {
		return nil, fmt.Errorf("%w: playlist id or title", shared.ErrMissingArgument)
	}

	playlists, err := svc.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}

	for _, p := range playlists {
		if p.ID == idOrTitle || p.Title == idOrTitle {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("%w: no playlist matching %q on %s", shared.ErrPlaylistNotFound, idOrTitle, svc.Name())
}

// newRateLimiter builds a limiter for remote requests from the given rate,
// falling back to the configured sync rate.
func (e *Engine) newRateLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = e.config.Sync.RateLimit
	}
	if perSecond <= 0 {
		perSecond = 2.0
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// addInBatches appends track IDs to a remote playlist in batches, falling
// back to one-by-one addition when a whole batch is rejected so a single bad
// entry cannot sink the rest. Every request waits on the limiter first so
// writes are paced like any other remote call.
//
// Returns the number of tracks added and the IDs that failed individually.
func (e *Engine) addInBatches(ctx context.Context, progress chan<- ProgressUpdate, svc services.Service, playlistID string, trackIDs []string, batchSize int, limiter *rate.Limiter) (int, []string, error) {
	if batchSize <= 0 {
		batchSize = e.config.Sync.BatchSize
	}
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	added := 0
	var failed []string

	for start := 0; start < len(trackIDs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return added, failed, err
		}

		end := min(start+batchSize, len(trackIDs))
		batch := trackIDs[start:end]

		e.sendProgress(progress, addBatchUpdate(end, len(trackIDs)))

		if err := limiter.Wait(ctx); err != nil {
			return added, failed, err
		}

		if err := svc.AddTracks(ctx, playlistID, batch); err == nil {
			added += len(batch)
			continue
		} else {
			e.logger.Warn("batch add failed, retrying individually", "playlist", playlistID, "batch_size", len(batch), "error", err)
		}

		for _, id := range batch {
			if err := limiter.Wait(ctx); err != nil {
				return added, failed, err
			}

			if err := svc.AddTracks(ctx, playlistID, []string{id}); err != nil {
				e.logger.Warn("track rejected", "playlist", playlistID, "track", id, "error", err)
				failed = append(failed, id)
				continue
			}
			added++
		}
	}

	return added, failed, nil
}
