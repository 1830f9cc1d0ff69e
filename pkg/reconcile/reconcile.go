// Package reconcile computes full replacement collections for remote resources
// that only accept whole-collection writes.
package reconcile

// Change describes what Apply did to a collection.
type Change string

const (
	ChangeInserted Change = "inserted"
	ChangeUpdated  Change = "updated"
	ChangeRemoved  Change = "removed"
	ChangeNotFound Change = "not_found"
)

// Op is the kind of an Intent.
type Op int

const (
	OpUpsert Op = iota
	OpRemove
)

type (
	// KeyFunc extracts the natural key of an item.
	KeyFunc[T any] func(T) string
	// Intent is a single change requested against a collection.
	Intent[T any] struct {
		Op   Op
		Item T
		Key  string
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func UpsertIntent[T any](item T) Intent[T] {
	return Intent[T]{Op: OpUpsert, Item: item}
}

func RemoveIntent[T any](key string) Intent[T] {
	return Intent[T]{Op: OpRemove, Key: key}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Apply returns the collection that results from applying intent to current.
// current is never modified.
func Apply[T any](current []T, intent Intent[T], key KeyFunc[T]) ([]T, Change) {
	switch intent.Op {
	case OpRemove:
		next, found := Remove(current, intent.Key, key)
		if !found {
			return next, ChangeNotFound
		}
		return next, ChangeRemoved
	default:
		next, updated := Upsert(current, intent.Item, key)
		if updated {
			return next, ChangeUpdated
		}
		return next, ChangeInserted
	}
}

// Upsert replaces the item sharing item's key in place or appends item.
// Any further items with the same key are dropped so the result holds one
// item per key.
func Upsert[T any](items []T, item T, key KeyFunc[T]) ([]T, bool) {
	k := key(item)
	ret := make([]T, 0, len(items)+1)
	updated := false
	for _, existing := range items {
		if key(existing) != k {
			ret = append(ret, existing)
			continue
		}
		if !updated {
			ret = append(ret, item)
			updated = true
		}
	}
	if !updated {
		ret = append(ret, item)
	}
	return ret, updated
}

// Remove filters out every item whose key equals target.
// When nothing matches, items is returned as is together with false.
func Remove[T any](items []T, target string, key KeyFunc[T]) ([]T, bool) {
	ret := make([]T, 0, len(items))
	for _, existing := range items {
		if key(existing) == target {
			continue
		}
		ret = append(ret, existing)
	}
	if len(ret) == len(items) {
		return items, false
	}
	return ret, true
}

// Keys lists the keys of items in collection order.
func Keys[T any](items []T, key KeyFunc[T]) []string {
	ret := make([]string, 0, len(items))
	for _, item := range items {
		ret = append(ret, key(item))
	}
	return ret
}
