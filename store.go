package splitauth

// Store is the durable home of the canonical user collection.
//
// There is deliberately no partial-record update primitive: every mutation in
// the system is expressed as load full collection, compute new collection,
// save full collection. That trades write amplification for the elimination
// of partial-record corruption, which is the right trade at this app's write
// concurrency.
type Store interface {
	// LoadAll returns the full collection. Implementations self-heal on a
	// missing or corrupt backing store by resetting to an empty valid
	// store and logging the condition, rather than failing the caller.
	LoadAll() ([]UserRecord, error)

	// SaveAll replaces the full collection. A failed save must not leave
	// the backing store readable as partially-written data.
	SaveAll(records []UserRecord) error

	// Update runs fn inside the store's single-writer critical section:
	// the current collection is loaded, fn computes the replacement, and
	// the result is saved. If fn returns an error nothing is written and
	// the error is returned unchanged.
	Update(fn func(records []UserRecord) ([]UserRecord, error)) error
}
