package store

import (
	"fmt"

	"diamond-catalog-api/internal/catalog"
)

// SetFilters shallow-merges patch into the current filter set. A merge that
// would break a range or enum invariant is rejected with ErrInvalidFilters.
func (s *Store) SetFilters(patch catalog.FilterPatch) (Outcome, error) {
	if patch.IsEmpty() {
		return Unchanged, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.Apply(s.st.filters)
	if err := merged.Validate(); err != nil {
		return Unchanged, fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}

	next := s.st
	next.filters = merged
	s.commit(OpSetFilters, Updated, next)
	return Updated, nil
}

// ResetFilters restores the all-inclusive default filter set
func (s *Store) ResetFilters() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st
	next.filters = catalog.DefaultFilters()
	s.commit(OpResetFilters, Updated, next)
	return Updated
}
