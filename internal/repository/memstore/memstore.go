// Package memstore is an in-process implementation of the repository
// layer. It backs STORAGE_DRIVER=memory and the service and handler
// tests, and keeps the same guarantees as the PostgreSQL schema: unique
// slugs, one earning per click, one initiated withdrawal per owner and
// cascading link deletes.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
)

// Store holds every table behind one mutex.
type Store struct {
	mu       sync.RWMutex
	links    map[uuid.UUID]*models.Link
	slugs    map[string]uuid.UUID
	clicks   map[uuid.UUID]*models.Click
	earnings map[uuid.UUID]*models.Earning // keyed by click id
	wallet   map[uuid.UUID]*models.WalletTransaction
	settings map[string]string

	Links    *LinkStore
	Clicks   *ClickStore
	Earnings *EarningStore
	Wallet   *WalletStore
	Settings *SettingsStore
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		links:    make(map[uuid.UUID]*models.Link),
		slugs:    make(map[string]uuid.UUID),
		clicks:   make(map[uuid.UUID]*models.Click),
		earnings: make(map[uuid.UUID]*models.Earning),
		wallet:   make(map[uuid.UUID]*models.WalletTransaction),
		settings: make(map[string]string),
	}
	s.Links = &LinkStore{s: s}
	s.Clicks = &ClickStore{s: s}
	s.Earnings = &EarningStore{s: s}
	s.Wallet = &WalletStore{s: s}
	s.Settings = &SettingsStore{s: s}
	return s
}
