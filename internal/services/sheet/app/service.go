// Package app runs sheet commands against stored characters: it loads a
// snapshot, applies one engine command and persists the result together with
// a journal row.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	"github.com/louisbranch/magemaker/internal/platform/i18n/catalog"
	platformid "github.com/louisbranch/magemaker/internal/platform/id"
	"github.com/louisbranch/magemaker/internal/platform/telemetry/metrics"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/magemaker/internal/services/sheet/app"

// Journal outcomes and metric outcome labels.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Options configures optional collaborators. Zero values get defaults.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Decisions
	Tracer  trace.Tracer
	Catalog *catalog.Bundle
	Clock   func() time.Time
	NewID   func() (string, error)
}

// Service owns the command flow for stored characters.
type Service struct {
	store   storage.Store
	rules   *ruleset.Ruleset
	logger  *log.Logger
	metrics *metrics.Decisions
	tracer  trace.Tracer
	catalog *catalog.Bundle
	clock   func() time.Time
	newID   func() (string, error)
	locks   characterLocks
}

// New creates a service over store bound to rules.
func New(store storage.Store, rules *ruleset.Ruleset, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("character store is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("ruleset is required")
	}
	s := &Service{
		store:   store,
		rules:   rules,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		catalog: opts.Catalog,
		clock:   opts.Clock,
		newID:   opts.NewID,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = platformid.NewID
	}
	return s, nil
}

// Rules returns the ruleset characters are bound to.
func (s *Service) Rules() *ruleset.Ruleset {
	return s.rules
}

// Character is a loaded character with its storage timestamps.
type Character struct {
	ID        string
	Sheet     *character.Sheet
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Result is the outcome of one command. Decision is set even when the
// command was rejected; Character then holds the unchanged sheet.
type Result struct {
	Character Character
	Decision  character.Decision
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) begin(ctx context.Context, operation, characterID string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "sheet."+operation, trace.WithAttributes(
		attribute.String("sheet.operation", operation),
		attribute.String("sheet.character_id", characterID),
	))
	return ctx, span, time.Now()
}

// end closes the span and records the metric for one operation. mutating
// operations report accepted, read-only ones ok.
func (s *Service) end(span trace.Span, operation string, mutating bool, started time.Time, err error) {
	outcome, code := OutcomeOK, ""
	if mutating {
		outcome = OutcomeAccepted
	}
	if err != nil {
		outcome, code = OutcomeError, string(apperrors.CodeOf(err))
		if isRejection(err) {
			outcome = OutcomeRejected
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
		span.RecordError(err)
	}
	span.SetAttributes(
		attribute.String("sheet.outcome", outcome),
		attribute.String("sheet.code", code),
	)
	span.End()
	s.metrics.Observe(operation, outcome, code, time.Since(started))
}

func validateID(characterID string) (string, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return "", apperrors.New(apperrors.CodeCharacterIDInvalid, "character id is required")
	}
	if !platformid.Valid(characterID) {
		return "", apperrors.WithMetadata(apperrors.CodeCharacterIDInvalid, "malformed character id",
			map[string]string{"id": characterID})
	}
	return characterID, nil
}

func (s *Service) load(ctx context.Context, characterID string) (storage.CharacterRecord, *character.Sheet, error) {
	record, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.CharacterRecord{}, nil, apperrors.WithMetadata(apperrors.CodeCharacterNotFound,
				"character not found", map[string]string{"id": characterID})
		}
		return storage.CharacterRecord{}, nil, fmt.Errorf("load character %s: %w", characterID, err)
	}
	sheet, err := s.decode(record.Snapshot)
	if err != nil {
		return storage.CharacterRecord{}, nil, err
	}
	return record, sheet, nil
}

func (s *Service) decode(data []byte) (*character.Sheet, error) {
	var snap character.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshotInvalid, "decode snapshot", err)
	}
	return s.restore(snap)
}

func (s *Service) restore(snap character.Snapshot) (*character.Sheet, error) {
	sheet, err := character.FromSnapshot(s.rules, snap)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshotInvalid, "restore snapshot", err)
	}
	return sheet, nil
}

func recordFor(characterID string, sheet *character.Sheet, createdAt, updatedAt time.Time) (storage.CharacterRecord, error) {
	data, err := json.Marshal(sheet.Snapshot())
	if err != nil {
		return storage.CharacterRecord{}, fmt.Errorf("encode snapshot: %w", err)
	}
	profile := sheet.Profile()
	return storage.CharacterRecord{
		ID:              characterID,
		Name:            profile.Name,
		Regime:          string(sheet.Regime()),
		Faction:         profile.Faction,
		Group:           profile.Group,
		Arete:           sheet.Rating(trait.Arete),
		ExperienceTotal: sheet.ExperienceTotal(),
		Snapshot:        data,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func characterFrom(record storage.CharacterRecord, sheet *character.Sheet) Character {
	return Character{
		ID:        record.ID,
		Sheet:     sheet,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// mutate runs one engine command under the character's lock. Accepted
// commands are saved with their journal row in one transaction; rejected
// ones only append a journal row.
func (s *Service) mutate(ctx context.Context, operation, characterID, detail string, command func(*character.Sheet) character.Decision) (res Result, err error) {
	ctx, span, started := s.begin(ctx, operation, characterID)
	defer func() { s.end(span, operation, true, started, err) }()

	characterID, err = validateID(characterID)
	if err != nil {
		return Result{}, err
	}
	unlock := s.locks.lock(characterID)
	defer unlock()

	record, sheet, err := s.load(ctx, characterID)
	if err != nil {
		return Result{}, err
	}

	decision := command(sheet)
	res = Result{Character: characterFrom(record, sheet), Decision: decision}
	now := s.now()
	entry := storage.JournalEntry{
		CharacterID: characterID,
		Operation:   operation,
		Outcome:     OutcomeAccepted,
		Detail:      detail,
		Cost:        decision.Cost,
		CreatedAt:   now,
	}

	if !decision.Accepted() {
		entry.Outcome = OutcomeRejected
		entry.Code = string(decision.Rejection.Code)
		if err := s.store.AppendJournal(ctx, entry); err != nil {
			s.logger.Printf("sheet journal op=%s character=%s: %v", operation, characterID, err)
		}
		return res, rejectionError(decision)
	}

	updated, err := recordFor(characterID, sheet, record.CreatedAt, now)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.SaveCharacter(ctx, updated, entry); err != nil {
		return Result{}, fmt.Errorf("save character %s: %w", characterID, err)
	}
	s.logger.Printf("sheet op=%s character=%s regime=%s cost=%d detail=%q", operation, characterID, sheet.Regime(), decision.Cost, detail)
	res.Character = characterFrom(updated, sheet)
	return res, nil
}

// read loads a character without taking its lock.
func (s *Service) read(ctx context.Context, operation, characterID string, fn func(context.Context, Character) error) (err error) {
	ctx, span, started := s.begin(ctx, operation, characterID)
	defer func() { s.end(span, operation, false, started, err) }()

	characterID, err = validateID(characterID)
	if err != nil {
		return err
	}
	record, sheet, err := s.load(ctx, characterID)
	if err != nil {
		return err
	}
	return fn(ctx, characterFrom(record, sheet))
}

// rejectionError converts an engine rejection into a platform error that
// keeps the rejection as its cause.
func rejectionError(d character.Decision) error {
	r := d.Rejection
	return apperrors.WrapWithMetadata(apperrors.Code(r.Code), "command rejected", r.Metadata, r)
}

func isRejection(err error) bool {
	var r *character.Rejection
	return errors.As(err, &r)
}

// Rejection returns the engine rejection carried by err, if any.
func Rejection(err error) (*character.Rejection, bool) {
	var r *character.Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
