package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseCharacterFilter_Empty(t *testing.T) {
	cond, err := ParseCharacterFilter(" ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !cond.Empty() || cond.Params != nil {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseCharacterFilter_Equals(t *testing.T) {
	cond, err := ParseCharacterFilter(`regime = "freebie"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "regime = ?" {
		t.Fatalf("Clause = %q, want %q", cond.Clause, "regime = ?")
	}
	if !reflect.DeepEqual(cond.Params, []any{"freebie"}) {
		t.Fatalf("Params = %v", cond.Params)
	}
}

func TestParseCharacterFilter_AndOrNot(t *testing.T) {
	cond, err := ParseCharacterFilter(`faction = "Traditions" AND (group = "Verbena" OR arete >= 3)`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "(faction = ? AND (group_name = ? OR arete >= ?))" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"Traditions", "Verbena", int64(3)}) {
		t.Fatalf("Params = %v", cond.Params)
	}

	cond, err = ParseCharacterFilter(`NOT regime = "experience"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "NOT regime = ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
}

func TestParseCharacterFilter_Has(t *testing.T) {
	cond, err := ParseCharacterFilter(`name:"Dr_Ada"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != `LOWER(name) LIKE ? ESCAPE '\'` {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{`%dr\_ada%`}) {
		t.Fatalf("Params = %v", cond.Params)
	}
}

func TestParseCharacterFilter_Timestamp(t *testing.T) {
	cond, err := ParseCharacterFilter(`update_time > timestamp("2026-01-02T03:04:05Z")`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "updated_at > ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	want := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC).UnixMilli()
	if !reflect.DeepEqual(cond.Params, []any{want}) {
		t.Fatalf("Params = %v, want [%d]", cond.Params, want)
	}
}

func TestParseCharacterFilter_Invalid(t *testing.T) {
	for _, input := range []string{
		`player = "Sam"`,
		`regime = `,
		`arete = "three"`,
	} {
		if _, err := ParseCharacterFilter(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
