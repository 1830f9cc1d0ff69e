// Package snapshot keeps copies of remote collections taken right before they
// are replaced, so a lost or mistaken write can be inspected and undone by hand.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	KeyPrefix = "barctl-"
	KeySuffix = ".json"

	// fixed width so that lexical order is chronological order
	timestampLayout = "20060102T150405.000000000Z"
)

type (
	History struct {
		l     *zap.Logger
		dir   string
		limit int
		now   func() time.Time
		// storage is created from dir when not set
		storage Storage
		mu      sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HistoryWithLimit(v int) HistoryOption {
	return func(o *History) {
		o.limit = v
	}
}

func HistoryWithDir(v string) HistoryOption {
	return func(o *History) {
		o.dir = v
	}
}

func HistoryWithStorage(s Storage) HistoryOption {
	return func(o *History) {
		o.storage = s
	}
}

func HistoryWithClock(fn func() time.Time) HistoryOption {
	return func(o *History) {
		o.now = fn
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, opts ...HistoryOption) (*History, error) {
	inst := &History{
		l:     l.Named("snapshot"),
		dir:   "/var/lib/barctl",
		limit: 10,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		storage, err := NewFilesystemStorage(inst.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create default filesystem storage: %w", err)
		}
		inst.storage = storage
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add stores data as the newest snapshot of collection and drops snapshots
// beyond the limit. It returns the key written.
func (h *History) Add(ctx context.Context, collection string, data []byte) (string, error) {
	if err := validCollection(collection); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	key := collectionPrefix(collection) + h.now().UTC().Format(timestampLayout) + KeySuffix
	if err := h.storage.Write(ctx, key, data); err != nil {
		return "", errors.Wrap(err, "failed to write snapshot")
	}
	h.l.Debug("snapshot written", zap.String("collection", collection), zap.String("key", key))

	if err := h.cleanup(ctx, collection); err != nil {
		return key, errors.Wrap(err, "failed to clean up snapshots")
	}
	return key, nil
}

// List returns the snapshot keys of collection, newest first.
func (h *History) List(ctx context.Context, collection string) ([]string, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.keys(ctx, collection)
}

// Get reads a snapshot of collection. An empty key selects the newest one.
func (h *History) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	if key == "" {
		keys, err := h.keys(ctx, collection)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, errors.Errorf("no snapshots for collection %q", collection)
		}
		key = keys[0]
	} else if !strings.HasPrefix(key, collectionPrefix(collection)) {
		return nil, errors.Errorf("snapshot %q does not belong to collection %q", key, collection)
	}
	return h.storage.Read(ctx, key)
}

func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.storage != nil {
		return h.storage.Close()
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *History) keys(ctx context.Context, collection string) ([]string, error) {
	prefix := collectionPrefix(collection)
	all, err := h.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, key := range all {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, KeySuffix) &&
			len(key) == len(prefix)+len(timestampLayout)+len(KeySuffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (h *History) cleanup(ctx context.Context, collection string) error {
	if h.limit <= 0 {
		return nil
	}
	keys, err := h.keys(ctx, collection)
	if err != nil {
		return err
	}
	if len(keys) <= h.limit {
		return nil
	}
	for _, key := range keys[h.limit:] {
		h.l.Debug("removing outdated snapshot", zap.String("key", key))
		if err := h.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("could not remove snapshot %s: %w", key, err)
		}
	}
	return nil
}

func collectionPrefix(collection string) string {
	return KeyPrefix + collection + "-"
}

func validCollection(collection string) error {
	if collection == "" || strings.ContainsAny(collection, `/\`) {
		return errors.Errorf("invalid collection name %q", collection)
	}
	return nil
}
