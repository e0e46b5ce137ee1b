// Package storage defines persistence contracts for character sheets.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/magemaker/internal/services/sheet/core/filter"
)

var (
	// ErrNotFound indicates a requested character is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a character id is already taken.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidPageToken indicates a list cursor the store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// CharacterRecord is one stored character. Snapshot holds the engine's JSON
// snapshot; the other fields are copies kept for listing and filtering.
type CharacterRecord struct {
	ID              string
	Name            string
	Regime          string
	Faction         string
	Group           string
	Arete           int
	ExperienceTotal int
	Snapshot        []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CharacterPage is one page of character records.
type CharacterPage struct {
	Characters    []CharacterRecord
	NextPageToken string
}

// ListQuery selects a page of characters.
type ListQuery struct {
	PageSize  int
	PageToken string
	Filter    filter.SQLCondition
}

// JournalEntry records one accepted or rejected command against a character.
type JournalEntry struct {
	CharacterID string
	Seq         int64
	Operation   string
	Outcome     string
	Code        string
	Detail      string
	Cost        int
	CreatedAt   time.Time
}

// CharacterStore persists characters.
type CharacterStore interface {
	// CreateCharacter inserts a character and appends entry to its journal
	// in one transaction.
	CreateCharacter(ctx context.Context, record CharacterRecord, entry JournalEntry) error
	GetCharacter(ctx context.Context, id string) (CharacterRecord, error)
	ListCharacters(ctx context.Context, query ListQuery) (CharacterPage, error)
	DeleteCharacter(ctx context.Context, id string) error
	// SaveCharacter replaces a character and appends entry to its journal in
	// one transaction.
	SaveCharacter(ctx context.Context, record CharacterRecord, entry JournalEntry) error
}

// JournalStore reads the command journal.
type JournalStore interface {
	AppendJournal(ctx context.Context, entry JournalEntry) error
	ListJournal(ctx context.Context, characterID string, limit int) ([]JournalEntry, error)
}

// Store is the full persistence surface the sheet service needs.
type Store interface {
	CharacterStore
	JournalStore
	Close() error
}
