// Package nvm persists selected accumulator fields across process
// restarts. The stores only promise to hand back what was saved; retry
// and recovery policy belongs to the caller.
package nvm

// A Store keeps accumulator values across process lifetimes, keyed by
// state field name.
type Store interface {
	// Load returns the saved value of a field. A field that was never
	// saved loads as 0 with no error, so a first boot starts from the
	// default state.
	Load(field string) (float64, error)

	// Save commits the value of a field.
	Save(field string, v float64) error

	// Close releases the underlying storage.
	Close() error
}

// MemStore is a map-backed Store for tests and volatile runs.
type MemStore struct {
	values map[string]float64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string]float64),
	}
}

// Load returns the saved value, or 0 if the field was never saved.
func (s *MemStore) Load(field string) (float64, error) {
	return s.values[field], nil
}

// Save commits the value of a field.
func (s *MemStore) Save(field string, v float64) error {
	s.values[field] = v
	return nil
}

// Close does nothing for an in-memory store.
func (s *MemStore) Close() error {
	return nil
}
