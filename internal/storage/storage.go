// Package storage provides the key-value persistence port used by the stores.
// Values are opaque bytes; GetJSON and SetJSON cover the common JSON case.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a string-keyed byte store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Persisted keys.
const (
	SessionKey = "auth.session"
	UsersKey   = "auth.users"
)

// ProfileKey holds the goal and daily counter of a user.
func ProfileKey(userID string) string {
	return "hydration." + userID + ".profile"
}

// HistoryKey holds the intake entries of a user.
func HistoryKey(userID string) string {
	return "hydration." + userID + ".history"
}

// RemindersKey holds the reminders of a user.
func RemindersKey(userID string) string {
	return "hydration." + userID + ".reminders"
}

// GetJSON loads key into v. It returns ErrNotFound unchanged so callers can
// fall back to defaults.
func GetJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
