// Package export renders ranked score snapshots as JSON, CSV, plain text and XLSX.
//
// Renderers never decide ranking: they print the Rank already attached to each
// record, so every format shows the same positions for the same snapshot.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"scorekeeper/core"
)

// DefaultLimit is the number of records an export includes when none is configured.
const DefaultLimit = 50

// Format selects an output representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps user input to a Format. "txt" is accepted for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, s)
}

// Snapshot is a ranked, bounded view of the store at one instant.
type Snapshot struct {
	GeneratedAt time.Time
	// Total is the number of records held by the store, not only those exported.
	Total   int
	Records []core.RankedRecord
}

// Document is a fully rendered export.
type Document struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Style carries presentation settings shared by all renderers.
type Style struct {
	Title    string
	Locale   Locale
	Location *time.Location
}

// Date renders t in the style's time zone and locale layout.
func (s Style) Date(t time.Time) string {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(s.Locale.DateLayout)
}

// Renderer writes one format.
type Renderer interface {
	Render(w io.Writer, snap Snapshot, style Style) error
	ContentType() string
	Extension() string
}

// Options configures a Formatter.
type Options struct {
	// Title overrides the locale's report title when set.
	Title string
	// FilenamePrefix is the first part of suggested filenames (default "ranking").
	FilenamePrefix string
	// Location is the time zone dates are shown in (default UTC). The server
	// configuration passes America/Sao_Paulo unless told otherwise.
	Location *time.Location
	// DefaultLocale is used when no requested language matches (default pt-BR).
	DefaultLocale string
}

// Formatter dispatches snapshots to the renderer registered for a format.
type Formatter struct {
	opts          Options
	defaultLocale Locale
	renderers     map[Format]Renderer
}

// NewFormatter returns a formatter with the json, csv, text and xlsx renderers registered.
func NewFormatter(opts Options) *Formatter {
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = "ranking"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	def := BrazilianPortuguese
	if opts.DefaultLocale != "" {
		if l, ok := matchLocale(opts.DefaultLocale); ok {
			def = l
		}
	}
	f := &Formatter{opts: opts, defaultLocale: def, renderers: map[Format]Renderer{}}
	f.Register(FormatJSON, jsonRenderer{})
	f.Register(FormatCSV, csvRenderer{})
	f.Register(FormatText, textRenderer{})
	f.Register(FormatXLSX, xlsxRenderer{})
	return f
}

// Register installs or replaces the renderer for format.
func (f *Formatter) Register(format Format, r Renderer) {
	f.renderers[format] = r
}

// Formats lists registered formats in a stable order.
func (f *Formatter) Formats() []Format {
	out := make([]Format, 0, len(f.renderers))
	for k := range f.renderers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultLocale returns the locale used when nothing better matches.
func (f *Formatter) DefaultLocale() Locale { return f.defaultLocale }

// Locale resolves a language preference ("pt-BR", "en", or an Accept-Language
// header value) to a supported locale, falling back to the default.
func (f *Formatter) Locale(pref string) Locale {
	if l, ok := matchLocale(pref); ok {
		return l
	}
	return f.defaultLocale
}

// Render produces a complete document. On failure no bytes are returned.
func (f *Formatter) Render(format Format, snap Snapshot, locale Locale) (Document, error) {
	r, ok := f.renderers[format]
	if !ok {
		return Document{}, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, format)
	}
	if locale.DateLayout == "" {
		locale = f.defaultLocale
	}
	style := Style{Title: f.opts.Title, Locale: locale, Location: f.opts.Location}
	if style.Title == "" {
		style.Title = locale.Labels.Title
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, snap, style); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", core.ErrExport, format, err)
	}
	return Document{
		Format:      format,
		Filename:    fmt.Sprintf("%s-%s.%s", f.opts.FilenamePrefix, snap.GeneratedAt.In(f.opts.Location).Format("2006-01-02"), r.Extension()),
		ContentType: r.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
