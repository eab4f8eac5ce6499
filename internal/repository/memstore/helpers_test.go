package memstore

import "github.com/google/uuid"

// earningCount returns the number of earnings recorded for a click (0 or 1).
func (r *EarningStore) earningCount(clickID uuid.UUID) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.earnings[clickID]; ok {
		return 1
	}
	return 0
}
