// Package storage persists the app's collections as JSON documents under fixed keys.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Keys of the persisted collections.
const (
	KeyFlashcards    = "flashcards"
	KeyQuizzes       = "quizzes"
	KeyStudySessions = "studySessions"
	KeyLastViewed    = "lastViewed"
	KeyStudyStreak   = "studyStreak"
	KeyUserStats     = "userStats"
	KeyFavorites     = "favorites"
	KeyTimerSettings = "studyTimerSettings"
	KeyTimerStats    = "studyTimerStats"
	KeyStudyPlans    = "studyPlans"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed store of opaque documents.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// LoadJSON decodes the document under key into a T. An absent or undecodable
// document yields fallback; corruption is logged, never returned.
func LoadJSON[T any](s Store, key string, fallback T, log *slog.Logger) T {
	raw, err := s.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && log != nil {
			log.Warn("failed to read stored value", "key", key, "error", err)
		}
		return fallback
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		if log != nil {
			log.Warn("discarding corrupt stored value", "key", key, "error", err)
		}
		return fallback
	}
	return v
}

// SaveJSON encodes v and writes it under key.
func SaveJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Set(key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
