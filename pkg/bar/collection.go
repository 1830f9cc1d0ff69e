package bar

import (
	"context"
	"net/http"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/reconcile"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	// collection describes a replace-only DSA resource.
	collection[T any] struct {
		name       string
		endpoint   string
		listStatus string
		decode     func(*dsa.Response) ([]T, error)
		encode     func([]T) any
		// snapshot selects what is stored before a write, the fetched items by default
		snapshot func(resp *dsa.Response, before []T) any
	}
	// mutation is the record of one read-modify-write cycle.
	mutation[T any] struct {
		before []T
		after  []T
		change reconcile.Change
		// fetchErr or fetchRejected are set when the cycle stopped before writing
		fetchErr      error
		fetchRejected *dsa.Response
		written       bool
		writeErr      error
		response      *dsa.Response
	}
)

// mutate fetches the collection, applies transform and replaces the
// collection with the result. Nothing is written when the fetch fails or
// transform reports ChangeNotFound. Cycles on the same collection are
// serialized.
func mutate[T any](ctx context.Context, s *Service, c collection[T], transform func([]T) ([]T, reconcile.Change)) *mutation[T] {
	m := &mutation[T]{}
	l := s.l.With(zap.String("collection", c.name), zap.String("run_id", uuid.New().String()))

	s.serializer.Do(c.name, func() {
		resp, err := s.requester.Do(ctx, &dsa.Request{Method: http.MethodGet, Endpoint: c.endpoint})
		if err != nil {
			m.fetchErr = err
			return
		}
		switch {
		case resp.Succeeded(c.listStatus):
			items, err := c.decode(resp)
			if err != nil {
				m.fetchErr = err
				return
			}
			m.before = items
		case resp.ComponentMissing():
			m.before = nil
		default:
			m.fetchRejected = resp
			return
		}
		l.Debug("fetched collection", zap.Int("items", len(m.before)))

		m.after, m.change = transform(m.before)
		if m.change == reconcile.ChangeNotFound {
			return
		}

		s.snapshot(ctx, c.name, c.snapshotOf(resp, m.before))

		if m.after == nil {
			m.after = []T{}
		}
		l.Info("replacing collection",
			zap.String("change", string(m.change)),
			zap.Int("before", len(m.before)),
			zap.Int("after", len(m.after)),
		)
		m.written = true
		m.response, m.writeErr = s.requester.Do(ctx, &dsa.Request{
			Method:     http.MethodPost,
			Endpoint:   c.endpoint,
			Body:       c.encode(m.after),
			Idempotent: true,
		})
	})
	return m
}

func (c collection[T]) snapshotOf(resp *dsa.Response, before []T) any {
	if c.snapshot == nil {
		return before
	}
	return c.snapshot(resp, before)
}

// failed tells whether the cycle stopped before a write.
func (m *mutation[T]) failed() bool {
	return m.fetchErr != nil || m.fetchRejected != nil
}
