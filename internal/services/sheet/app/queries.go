package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	"github.com/louisbranch/magemaker/internal/platform/pagination"
	"github.com/louisbranch/magemaker/internal/services/sheet/core/filter"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/render"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage"
)

var (
	listPageSizes    = pagination.PageSizeConfig{Default: 20, Max: 100}
	journalPageSizes = pagination.PageSizeConfig{Default: 50, Max: 500}
)

// Get loads one character.
func (s *Service) Get(ctx context.Context, characterID string) (Character, error) {
	var out Character
	err := s.read(ctx, "get", characterID, func(_ context.Context, c Character) error {
		out = c
		return nil
	})
	return out, err
}

// ListInput selects a page of characters. Filter is an AIP-160 expression
// over name, regime, faction, group, arete, experience_total, create_time
// and update_time.
type ListInput struct {
	PageSize  int
	PageToken string
	Filter    string
}

// Summary is the listing view of a character.
type Summary struct {
	ID              string
	Name            string
	Regime          character.Regime
	Faction         string
	Group           string
	Arete           int
	ExperienceTotal int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListResult is one page of summaries.
type ListResult struct {
	Characters    []Summary
	NextPageToken string
}

// List returns one page of characters, newest first.
func (s *Service) List(ctx context.Context, in ListInput) (out ListResult, err error) {
	ctx, span, started := s.begin(ctx, "list", "")
	defer func() { s.end(span, "list", false, started, err) }()

	cond, err := filter.ParseCharacterFilter(in.Filter)
	if err != nil {
		return ListResult{}, apperrors.WrapWithMetadata(apperrors.CodeFilterInvalid, "parse filter",
			map[string]string{"filter": in.Filter}, err)
	}
	page, err := s.store.ListCharacters(ctx, storage.ListQuery{
		PageSize:  pagination.ClampPageSize(in.PageSize, listPageSizes),
		PageToken: in.PageToken,
		Filter:    cond,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPageToken) {
			return ListResult{}, apperrors.Wrap(apperrors.CodePageTokenInvalid, "list characters", err)
		}
		return ListResult{}, fmt.Errorf("list characters: %w", err)
	}
	out = ListResult{
		Characters:    make([]Summary, 0, len(page.Characters)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Characters {
		out.Characters = append(out.Characters, Summary{
			ID:              record.ID,
			Name:            record.Name,
			Regime:          character.Regime(record.Regime),
			Faction:         record.Faction,
			Group:           record.Group,
			Arete:           record.Arete,
			ExperienceTotal: record.ExperienceTotal,
			CreatedAt:       record.CreatedAt,
			UpdatedAt:       record.UpdatedAt,
		})
	}
	return out, nil
}

// Status summarizes what a character may still spend and what blocks the
// next regime.
type Status struct {
	Regime           character.Regime
	Reasons          []character.Reason
	Remaining        character.CreationTally
	FreebiePoints    int
	ExperiencePoints int
	AffinityOptions  []string
}

// Ready reports whether the current regime can be closed.
func (st Status) Ready() bool {
	return st.Regime != character.RegimeExperience && len(st.Reasons) == 0
}

// Status reports the regime gate for one character.
func (s *Service) Status(ctx context.Context, characterID string) (Status, error) {
	var out Status
	err := s.read(ctx, "status", characterID, func(_ context.Context, c Character) error {
		out = StatusOf(c.Sheet)
		return nil
	})
	return out, err
}

// StatusOf computes the status of a sheet already in hand.
func StatusOf(sheet *character.Sheet) Status {
	st := Status{
		Regime:           sheet.Regime(),
		Reasons:          sheet.CanAdvance(),
		FreebiePoints:    sheet.AvailableFreebiePoints(),
		ExperiencePoints: sheet.AvailableExperiencePoints(),
		AffinityOptions:  sheet.AffinityOptions(),
	}
	if st.Regime == character.RegimeCreation {
		st.Remaining = sheet.CreationDotsRemaining()
	}
	return st
}

// Quote previews a change without applying it. A rejected preview is
// reported in the decision, not as an error.
func (s *Service) Quote(ctx context.Context, characterID string, req character.ChangeRequest) (character.Decision, error) {
	var out character.Decision
	err := s.read(ctx, "quote", characterID, func(_ context.Context, c Character) error {
		out = c.Sheet.Preview(req)
		return nil
	})
	return out, err
}

// Export renders a character in format using the locale's catalog.
func (s *Service) Export(ctx context.Context, characterID string, format render.Format, locale string) (string, error) {
	var out string
	err := s.read(ctx, "export", characterID, func(_ context.Context, c Character) error {
		doc, err := render.Export(c.Sheet, s.catalog.Printer(locale), format)
		if err != nil {
			return fmt.Errorf("export character %s: %w", c.ID, err)
		}
		out = doc
		return nil
	})
	return out, err
}

// Journal returns the newest journal entries of a character first.
func (s *Service) Journal(ctx context.Context, characterID string, limit int) ([]storage.JournalEntry, error) {
	var out []storage.JournalEntry
	err := s.read(ctx, "journal", characterID, func(ctx context.Context, c Character) error {
		entries, err := s.store.ListJournal(ctx, c.ID, pagination.ClampPageSize(limit, journalPageSizes))
		if err != nil {
			return fmt.Errorf("list journal %s: %w", c.ID, err)
		}
		out = entries
		return nil
	})
	return out, err
}
