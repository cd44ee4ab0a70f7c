package app

import (
	"context"
	"log"
	"time"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes server-level
// state at a fixed cadence. While the server is unreachable the cadence
// backs off exponentially up to maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, source chitui.StatusSource, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		for {
			refresh(ctx, store, source)
			wait := calculateBackoff(store.ConsecutiveFailures(), interval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, source chitui.StatusSource) {
	status, err := source.FetchStatus(ctx)
	if err != nil {
		store.RecordPollError(err)
		log.Printf("status poll failed: %v", err)
		return
	}
	store.SetServerStatus(status)

	storage, err := source.FetchUSBStorage(ctx)
	if err != nil {
		store.RecordPollError(err)
		log.Printf("storage poll failed: %v", err)
		return
	}
	store.SetStorage(storage)
	store.RecordPollSuccess()
}

// calculateBackoff doubles the base interval per consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, baseInterval time.Duration) time.Duration {
	if failures <= 0 {
		return baseInterval
	}
	backoff := baseInterval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
