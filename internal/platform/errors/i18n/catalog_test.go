package i18n

import (
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
)

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if blank := GetCatalog(" "); blank != base {
		t.Fatal("expected blank locale to resolve to en-US catalog")
	}
}

func TestEveryCodeHasEnglishMessage(t *testing.T) {
	cat := GetCatalog("en-US")
	codes := []apperrors.Code{
		apperrors.CodeUnknown,
		apperrors.CodeBelowFloor,
		apperrors.CodeInsufficientPoints,
		apperrors.CodeConstraintViolation,
		apperrors.CodeInvalidTransition,
		apperrors.CodeDuplicatePriority,
		apperrors.CodeUnknownTrait,
		apperrors.CodeAboveMaximum,
		apperrors.CodeInvalidValue,
		apperrors.CodeRegimeLocked,
		apperrors.CodeAffinityNotAllowed,
		apperrors.CodeSphereForbidden,
		apperrors.CodeBackgroundNotAllowed,
		apperrors.CodeNotPurchasable,
		apperrors.CodeRulesetInvalid,
		apperrors.CodeSnapshotInvalid,
		apperrors.CodeExportInvalid,
		apperrors.CodeCharacterNotFound,
		apperrors.CodeCharacterIDInvalid,
		apperrors.CodeFilterInvalid,
		apperrors.CodePageTokenInvalid,
	}
	for _, code := range codes {
		if got := cat.Format(code, nil); got == string(code) {
			t.Fatalf("missing en-US message for %s", code)
		}
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	cat := GetCatalog("en-US")
	got := cat.Format(apperrors.CodeBelowFloor, map[string]string{"trait": "Strength", "floor": "3"})
	want := "Strength cannot go below 3; that rating was locked in by an earlier stage."
	if got != want {
		t.Fatalf("format = %q, want %q", got, want)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[apperrors.Code]string{
		"code":   "hello {{.name}}",
		"broken": "{{ if .name }}",
	})
	if got := cat.Format("unknown", nil); got != "unknown" {
		t.Fatalf("unknown = %q, want code fallback", got)
	}
	if got := cat.Format("code", nil); got != "hello <no value>" {
		t.Fatalf("code = %q, want missing metadata rendering", got)
	}
	if got := cat.Format("broken", map[string]string{"name": "x"}); got != "{{ if .name }}" {
		t.Fatalf("broken = %q, want raw template", got)
	}
}

func TestMessageUsesLocale(t *testing.T) {
	err := fmt.Errorf("load: %w", apperrors.WithMetadata(apperrors.CodeCharacterNotFound, "missing", map[string]string{"id": "abc"}))
	if got, want := Message("pt-BR", err), "Nenhum personagem com o id abc."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if got, want := Message("en-US", fmt.Errorf("plain")), "Something went wrong."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[apperrors.Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
