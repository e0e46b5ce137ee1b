// Package i18n renders localized messages for platform error codes.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	i18ncatalog "github.com/louisbranch/magemaker/internal/platform/i18n/catalog"
)

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale    string
	messages  map[apperrors.Code]string
	templates sync.Map // apperrors.Code -> *template.Template
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog for the given locale, falling back to en-US.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = i18ncatalog.BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	resolved, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(requested, "errors")
	if c, ok := lookupCatalog(resolved); ok {
		return c
	}
	converted := make(map[apperrors.Code]string, len(messages))
	for key, value := range messages {
		converted[apperrors.Code(key)] = value
	}
	return storeCatalogIfAbsent(resolved, NewCatalog(resolved, converted))
}

// NewCatalog creates a catalog with the given locale and message templates.
func NewCatalog(locale string, messages map[apperrors.Code]string) *Catalog {
	cloned := make(map[apperrors.Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{locale: locale, messages: cloned}
}

// RegisterCatalog installs a catalog for locale, replacing any previous one.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the template for code with metadata. Unknown codes render as
// the code itself; broken templates render as the raw template text.
func (c *Catalog) Format(code apperrors.Code, metadata map[string]string) string {
	raw, ok := c.messages[code]
	if !ok {
		return string(code)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	var tmpl *template.Template
	if cached, ok := c.templates.Load(code); ok {
		tmpl = cached.(*template.Template)
	} else {
		parsed, err := template.New(string(code)).Parse(raw)
		if err != nil {
			return raw
		}
		c.templates.Store(code, parsed)
		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return raw
	}
	return buf.String()
}

// Message returns the user-facing text for err in locale. Errors outside the
// platform taxonomy render as the UNKNOWN message.
func Message(locale string, err error) string {
	if err == nil {
		return ""
	}
	cat := GetCatalog(locale)
	if e, ok := apperrors.As(err); ok {
		return cat.Format(e.Code, e.Metadata)
	}
	return cat.Format(apperrors.CodeUnknown, nil)
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

func storeCatalogIfAbsent(locale string, candidate *Catalog) *Catalog {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = candidate
	return candidate
}
