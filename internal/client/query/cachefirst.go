package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sitetrackr/fieldsync/internal/logging"
)

// ErrOfflineNoCache is returned when a read has no local copy and the
// device is offline, so there is nothing to serve.
var ErrOfflineNoCache = errors.New("offline and no cached data")

// Options carries the environment shared by every cache-first read.
type Options struct {
	// Online reports current connectivity; offline reads can only be
	// served from cache.
	Online func() bool

	// Cache is the in-memory query cache layered in front of the durable
	// store. Optional.
	Cache Cache

	// TTL for in-memory cache entries.
	TTL time.Duration

	Log logging.Logger
}

// CacheFirst serves a read from the fastest layer that has it.
//
// A cached copy (in-memory or durable) is returned immediately; if online,
// a background refresh then silently overwrites both layers. The caller is
// never blocked on the refresh and its errors are only logged. With no cached copy
// the device must be online, otherwise ErrOfflineNoCache; online, the value
// is fetched, persisted, and returned.
//
// local reports the durable copy and whether one exists; fetch hits the
// network; store persists a fetched value.
func CacheFirst[T any](
	ctx context.Context,
	o Options,
	key string,
	local func(ctx context.Context) (T, bool, error),
	fetch func(ctx context.Context) (T, error),
	store func(ctx context.Context, v T) error,
) (T, error) {
	var zero T

	if o.Cache != nil {
		if raw := o.Cache.Get(ctx, key); raw != nil {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				refresh(ctx, o, key, fetch, store)
				return v, nil
			}
			o.Cache.Delete(ctx, key)
		}
	}

	v, present, err := local(ctx)
	if err != nil {
		return zero, err
	}
	if present {
		memoize(ctx, o, key, v)
		refresh(ctx, o, key, fetch, store)
		return v, nil
	}

	if !o.Online() {
		return zero, fmt.Errorf("%s: %w", key, ErrOfflineNoCache)
	}

	v, err = fetch(ctx)
	if err != nil {
		return zero, err
	}
	if err := store(ctx, v); err != nil {
		return zero, err
	}
	memoize(ctx, o, key, v)
	return v, nil
}

// refresh overwrites both cache layers with a fresh network copy,
// fire-and-forget.
func refresh[T any](
	ctx context.Context,
	o Options,
	key string,
	fetch func(ctx context.Context) (T, error),
	store func(ctx context.Context, v T) error,
) {
	if !o.Online() {
		return
	}

	// outlives the caller's request
	bg := context.WithoutCancel(ctx)

	go func() {
		v, err := fetch(bg)
		if err != nil {
			o.Log.Debug(bg, "background refresh failed", "key", key, "error", err)
			return
		}
		if err := store(bg, v); err != nil {
			o.Log.Warn(bg, "background refresh store failed", "key", key, "error", err)
			return
		}
		memoize(bg, o, key, v)
	}()
}

func memoize[T any](ctx context.Context, o Options, key string, v T) {
	if o.Cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	o.Cache.Set(ctx, key, raw, o.TTL)
}
