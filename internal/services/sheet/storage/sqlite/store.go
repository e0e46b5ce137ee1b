// Package sqlite provides a SQLite-backed character store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/magemaker/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists characters and their journal in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite character store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func validateRecord(record storage.CharacterRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(record.Regime) == "" {
		return fmt.Errorf("regime is required")
	}
	if len(record.Snapshot) == 0 {
		return fmt.Errorf("snapshot is required")
	}
	return nil
}

// CreateCharacter inserts one character and appends entry to its journal in
// one transaction.
func (s *Store) CreateCharacter(ctx context.Context, record storage.CharacterRecord, entry storage.JournalEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO characters (
		   id, name, regime, faction, group_name, arete, experience_total,
		   snapshot_json, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(record.ID),
		record.Name,
		record.Regime,
		record.Faction,
		record.Group,
		record.Arete,
		record.ExperienceTotal,
		record.Snapshot,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create character: %w", err)
	}
	entry.CharacterID = strings.TrimSpace(record.ID)
	if err := s.appendJournal(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	return nil
}

// GetCharacter returns one character by id.
func (s *Store) GetCharacter(ctx context.Context, id string) (storage.CharacterRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CharacterRecord{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.CharacterRecord{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectCharacter+` WHERE id = ?`, id)
	record, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CharacterRecord{}, storage.ErrNotFound
		}
		return storage.CharacterRecord{}, fmt.Errorf("get character: %w", err)
	}
	return record, nil
}

const selectCharacter = `SELECT id, name, regime, faction, group_name, arete, experience_total,
        snapshot_json, created_at, updated_at
   FROM characters`

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (storage.CharacterRecord, error) {
	var record storage.CharacterRecord
	var createdAt, updatedAt int64
	err := row.Scan(
		&record.ID,
		&record.Name,
		&record.Regime,
		&record.Faction,
		&record.Group,
		&record.Arete,
		&record.ExperienceTotal,
		&record.Snapshot,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.CharacterRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// ListCharacters returns one page of characters, newest first.
func (s *Store) ListCharacters(ctx context.Context, query storage.ListQuery) (storage.CharacterPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.CharacterPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.CharacterPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		where  []string
		params []any
	)
	if !query.Filter.Empty() {
		where = append(where, "("+query.Filter.Clause+")")
		params = append(params, query.Filter.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return storage.CharacterPage{}, err
		}
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		params = append(params, createdAt, createdAt, id)
	}

	stmt := selectCharacter
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY created_at DESC, id DESC LIMIT ?"
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, stmt, params...)
	if err != nil {
		return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	page := storage.CharacterPage{Characters: make([]storage.CharacterRecord, 0, query.PageSize)}
	for rows.Next() {
		record, err := scanCharacter(rows)
		if err != nil {
			return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
		}
		page.Characters = append(page.Characters, record)
	}
	if err := rows.Err(); err != nil {
		return storage.CharacterPage{}, fmt.Errorf("list characters: %w", err)
	}
	if len(page.Characters) > query.PageSize {
		last := page.Characters[query.PageSize-1]
		page.NextPageToken = encodePageToken(toMillis(last.CreatedAt), last.ID)
		page.Characters = page.Characters[:query.PageSize]
	}
	return page, nil
}

func encodePageToken(createdAt int64, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(createdAt, 10) + "/" + id))
}

func decodePageToken(token string) (int64, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, "", storage.ErrInvalidPageToken
	}
	millis, id, ok := strings.Cut(string(raw), "/")
	if !ok || id == "" {
		return 0, "", storage.ErrInvalidPageToken
	}
	createdAt, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return 0, "", storage.ErrInvalidPageToken
	}
	return createdAt, id, nil
}

// DeleteCharacter removes a character and its journal.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM character_journal WHERE character_id = ?`, id); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// SaveCharacter replaces an existing character and appends entry to its
// journal in one transaction.
func (s *Store) SaveCharacter(ctx context.Context, record storage.CharacterRecord, entry storage.JournalEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = s.now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE characters
		    SET name = ?, regime = ?, faction = ?, group_name = ?, arete = ?,
		        experience_total = ?, snapshot_json = ?, updated_at = ?
		  WHERE id = ?`,
		record.Name,
		record.Regime,
		record.Faction,
		record.Group,
		record.Arete,
		record.ExperienceTotal,
		record.Snapshot,
		toMillis(updatedAt),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	entry.CharacterID = record.ID
	if err := s.appendJournal(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// AppendJournal records a command that did not change the character.
func (s *Store) AppendJournal(ctx context.Context, entry storage.JournalEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.appendJournal(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal: %w", err)
	}
	return nil
}

func (s *Store) appendJournal(ctx context.Context, tx *sql.Tx, entry storage.JournalEntry) error {
	if strings.TrimSpace(entry.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(entry.Operation) == "" {
		return fmt.Errorf("operation is required")
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO character_journal (
		   character_id, seq, operation, outcome, code, detail, cost, created_at
		 ) VALUES (
		   ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM character_journal WHERE character_id = ?),
		   ?, ?, ?, ?, ?, ?
		 )`,
		entry.CharacterID,
		entry.CharacterID,
		entry.Operation,
		entry.Outcome,
		entry.Code,
		entry.Detail,
		entry.Cost,
		toMillis(createdAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// ListJournal returns the newest journal entries first, at most limit.
func (s *Store) ListJournal(ctx context.Context, characterID string, limit int) ([]storage.JournalEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT character_id, seq, operation, outcome, code, detail, cost, created_at
		   FROM character_journal
		  WHERE character_id = ?
		  ORDER BY seq DESC
		  LIMIT ?`,
		characterID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []storage.JournalEntry
	for rows.Next() {
		var entry storage.JournalEntry
		var createdAt int64
		if err := rows.Scan(
			&entry.CharacterID,
			&entry.Seq,
			&entry.Operation,
			&entry.Outcome,
			&entry.Code,
			&entry.Detail,
			&entry.Cost,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list journal: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ storage.Store = (*Store)(nil)
