package memstore

import "context"

// SettingsStore is the in-memory settings table.
type SettingsStore struct {
	s *Store
}

func (r *SettingsStore) GetOrInit(_ context.Context, key, defaultValue string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if v, ok := r.s.settings[key]; ok {
		return v, nil
	}
	r.s.settings[key] = defaultValue
	return defaultValue, nil
}
