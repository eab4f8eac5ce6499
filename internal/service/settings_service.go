package service

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
)

// SettingsService reads process-wide settings with lazy initialization:
// the first read of a key persists the code default, and from then on
// the stored value wins.
type SettingsService struct {
	store  SettingsStore
	logger logrus.FieldLogger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store SettingsStore, logger logrus.FieldLogger) *SettingsService {
	return &SettingsService{store: store, logger: logger}
}

// GetOrInit returns the stored string value for key.
func (s *SettingsService) GetOrInit(ctx context.Context, key, defaultValue string) (string, error) {
	return s.store.GetOrInit(ctx, key, defaultValue)
}

// Float returns a numeric setting. A stored value that does not parse
// is logged and the default is used.
func (s *SettingsService) Float(ctx context.Context, key string, defaultValue float64) (float64, error) {
	raw, err := s.store.GetOrInit(ctx, key, strconv.FormatFloat(defaultValue, 'f', 2, 64))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("Unparseable setting, using default")
		return defaultValue, nil
	}
	return v, nil
}

// Int returns an integer setting, with the same fallback as Float.
func (s *SettingsService) Int(ctx context.Context, key string, defaultValue int) (int, error) {
	raw, err := s.store.GetOrInit(ctx, key, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("Unparseable setting, using default")
		return defaultValue, nil
	}
	return v, nil
}
