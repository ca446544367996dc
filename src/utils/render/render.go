package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Page is what every template receives.
type Page struct {
	Title    string
	Username string
	Flashes  []Flash
	Data     any
}

// Renderer executes the page templates, each wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money":   FormatMoney,
	"percent": FormatPercent,
	"deref":   deref,
}

// NewRenderer parses every page under templates/ together with the layout.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, path := range names {
		name := path[len("templates/"):]
		if name == layoutTemplate {
			continue
		}
		tpl, err := template.New(layoutTemplate).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutTemplate, path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page. Output is buffered so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, layoutTemplate, page); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// FormatMoney renders a decimal amount with two places; nulls render empty.
func FormatMoney(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.StringFixed(2)
	case decimal.NullDecimal:
		if !d.Valid {
			return ""
		}
		return d.Decimal.StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}

// FormatPercent renders a fraction as a percentage with two places.
func FormatPercent(v any) string {
	hundred := decimal.NewFromInt(100)
	switch d := v.(type) {
	case decimal.Decimal:
		return d.Mul(hundred).StringFixed(2) + "%"
	case decimal.NullDecimal:
		if !d.Valid {
			return ""
		}
		return d.Decimal.Mul(hundred).StringFixed(2) + "%"
	default:
		return fmt.Sprint(v)
	}
}

func deref(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return ""
		}
		return *p
	case *int:
		if p == nil {
			return ""
		}
		return *p
	default:
		return v
	}
}
