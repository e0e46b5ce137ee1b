package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/render"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage"
)

// Create stores a new character in the creation regime.
func (s *Service) Create(ctx context.Context, profile character.Profile) (res Result, err error) {
	ctx, span, started := s.begin(ctx, "create", "")
	defer func() { s.end(span, "create", true, started, err) }()

	sheet := character.New(s.rules)
	decision := sheet.SetProfile(profile)
	if !decision.Accepted() {
		return Result{Decision: decision}, rejectionError(decision)
	}
	created, err := s.insert(ctx, "create", sheet)
	if err != nil {
		return Result{}, err
	}
	return Result{Character: created, Decision: decision}, nil
}

// Import stores a character read from a markdown export or a JSON snapshot
// under a new id.
func (s *Service) Import(ctx context.Context, document string) (res Result, err error) {
	ctx, span, started := s.begin(ctx, "import", "")
	defer func() { s.end(span, "import", true, started, err) }()

	snap, err := render.ParseMarkdown(document)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeExportInvalid, "read character export", err)
	}
	sheet, err := s.restore(snap)
	if err != nil {
		return Result{}, err
	}
	created, err := s.insert(ctx, "import", sheet)
	if err != nil {
		return Result{}, err
	}
	return Result{Character: created}, nil
}

func (s *Service) insert(ctx context.Context, operation string, sheet *character.Sheet) (Character, error) {
	characterID, err := s.newID()
	if err != nil {
		return Character{}, err
	}
	now := s.now()
	record, err := recordFor(characterID, sheet, now, now)
	if err != nil {
		return Character{}, err
	}
	entry := storage.JournalEntry{
		Operation: operation,
		Outcome:   OutcomeAccepted,
		Detail:    record.Name,
		CreatedAt: now,
	}
	if err := s.store.CreateCharacter(ctx, record, entry); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return Character{}, fmt.Errorf("character id %s already taken: %w", characterID, err)
		}
		return Character{}, fmt.Errorf("create character: %w", err)
	}
	s.logger.Printf("sheet op=%s character=%s name=%q", operation, characterID, record.Name)
	return characterFrom(record, sheet), nil
}

// Delete removes a character and its journal.
func (s *Service) Delete(ctx context.Context, characterID string) (err error) {
	ctx, span, started := s.begin(ctx, "delete", characterID)
	defer func() { s.end(span, "delete", true, started, err) }()

	characterID, err = validateID(characterID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(characterID)
	defer unlock()

	if err := s.store.DeleteCharacter(ctx, characterID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeCharacterNotFound, "character not found",
				map[string]string{"id": characterID})
		}
		return fmt.Errorf("delete character %s: %w", characterID, err)
	}
	s.logger.Printf("sheet op=delete character=%s", characterID)
	return nil
}

// Change requests a new rating for one trait.
func (s *Service) Change(ctx context.Context, characterID string, req character.ChangeRequest) (Result, error) {
	return s.mutate(ctx, "change", characterID, changeDetail(req), func(sheet *character.Sheet) character.Decision {
		return sheet.RequestChange(req)
	})
}

func changeDetail(req character.ChangeRequest) string {
	detail := req.Trait.Key() + "=" + strconv.Itoa(req.Rating)
	if req.Override {
		detail += " override"
	}
	return detail
}

// SetPriority assigns a creation tier to an attribute or ability category.
func (s *Service) SetPriority(ctx context.Context, characterID string, axis ruleset.Axis, category string, p ruleset.Priority) (Result, error) {
	detail := fmt.Sprintf("%s:%s=%s", axis, category, p)
	return s.mutate(ctx, "priority", characterID, detail, func(sheet *character.Sheet) character.Decision {
		return sheet.SetPriority(axis, category, p)
	})
}

// SelectAffinity chooses the affinity sphere; an empty name clears it.
func (s *Service) SelectAffinity(ctx context.Context, characterID, sphere string) (Result, error) {
	return s.mutate(ctx, "affinity", characterID, sphere, func(sheet *character.Sheet) character.Decision {
		return sheet.SelectAffinity(sphere)
	})
}

// Advance closes the current regime.
func (s *Service) Advance(ctx context.Context, characterID string) (Result, error) {
	return s.mutate(ctx, "advance", characterID, "", func(sheet *character.Sheet) character.Decision {
		from := sheet.Regime()
		d := sheet.Advance()
		if d.Accepted() {
			s.logger.Printf("sheet regime character=%s from=%s to=%s", characterID, from, sheet.Regime())
		}
		return d
	})
}

// AwardExperience adds experience points with an optional note.
func (s *Service) AwardExperience(ctx context.Context, characterID string, amount int, note string) (Result, error) {
	detail := strconv.Itoa(amount)
	if note = strings.TrimSpace(note); note != "" {
		detail += " " + note
	}
	return s.mutate(ctx, "award", characterID, detail, func(sheet *character.Sheet) character.Decision {
		return sheet.AwardExperience(amount, note)
	})
}

// SetMerit adds or removes a merit.
func (s *Service) SetMerit(ctx context.Context, characterID, name string, taken, override bool) (Result, error) {
	return s.mutate(ctx, "merit", characterID, qualityDetail(name, taken, override), func(sheet *character.Sheet) character.Decision {
		if taken {
			return sheet.AddMerit(name, override)
		}
		return sheet.RemoveMerit(name, override)
	})
}

// SetFlaw adds or removes a flaw.
func (s *Service) SetFlaw(ctx context.Context, characterID, name string, taken, override bool) (Result, error) {
	return s.mutate(ctx, "flaw", characterID, qualityDetail(name, taken, override), func(sheet *character.Sheet) character.Decision {
		if taken {
			return sheet.AddFlaw(name, override)
		}
		return sheet.RemoveFlaw(name, override)
	})
}

func qualityDetail(name string, taken, override bool) string {
	sign := "-"
	if taken {
		sign = "+"
	}
	detail := sign + strings.TrimSpace(name)
	if override {
		detail += " override"
	}
	return detail
}

// EditProfile applies edit to a copy of the current profile and stores it.
func (s *Service) EditProfile(ctx context.Context, characterID string, edit func(*character.Profile)) (Result, error) {
	return s.mutate(ctx, "profile", characterID, "", func(sheet *character.Sheet) character.Decision {
		profile := sheet.Profile()
		edit(&profile)
		return sheet.SetProfile(profile)
	})
}

// SetWillpowerCurrent sets the spendable Willpower pool.
func (s *Service) SetWillpowerCurrent(ctx context.Context, characterID string, n int) (Result, error) {
	return s.mutate(ctx, "willpower", characterID, strconv.Itoa(n), func(sheet *character.Sheet) character.Decision {
		return sheet.SetWillpowerCurrent(n)
	})
}

// SetParadox sets the Paradox pool.
func (s *Service) SetParadox(ctx context.Context, characterID string, n int) (Result, error) {
	return s.mutate(ctx, "paradox", characterID, strconv.Itoa(n), func(sheet *character.Sheet) character.Decision {
		return sheet.SetParadox(n)
	})
}
