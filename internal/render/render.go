// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML rendering for the public, read-only share
// page. Pages are rendered into a buffer so the result can be cached.
package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"collabforms/internal/markdown"
	"collabforms/internal/models"
	"collabforms/internal/workflow"
)

//go:embed templates/*.html
var templateFS embed.FS

// qrSize is the edge length in pixels of generated QR codes.
const qrSize = 256

// SharePage holds the data passed to the share template.
type SharePage struct {
	Form   *workflow.PublicForm
	URL    string       // absolute link to this page
	QRCode template.URL // data URI of a PNG QR code for URL, empty if unavailable
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing the embedded templates. Each page
// template is paired with the base layout.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// markdown renders question text. The converter runs without
			// unsafe mode, so raw HTML in the source is dropped from the
			// output and the result is safe to embed.
			"markdown": func(s string) template.HTML {
				out, err := markdown.Inline(s)
				if err != nil {
					return template.HTML(template.HTMLEscapeString(s))
				}
				return template.HTML(out) //nolint:gosec // converter omits raw HTML
			},
			"answer": formatAnswer,
			"date": func(t time.Time) string {
				return t.Format("2 Jan 2006")
			},
		},
	}

	for _, name := range []string{"share"} {
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			templateFS, "templates/base.html", "templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Share renders the public share page.
func (rn *Renderer) Share(page *SharePage) ([]byte, error) {
	tmpl, ok := rn.templates["share"]
	if !ok {
		return nil, fmt.Errorf("template %q not found", "share")
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", page); err != nil {
		return nil, fmt.Errorf("render share page: %w", err)
	}
	return buf.Bytes(), nil
}

// QRDataURI encodes url as a PNG QR code data URI. Failures are logged and
// yield an empty value so the page still renders.
func QRDataURI(url string) template.URL {
	png, err := QRCode(url)
	if err != nil {
		slog.Warn("qr code generation failed", "url", url, "error", err)
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)) //nolint:gosec // fixed scheme
}

// QRCode encodes url as a PNG QR code.
func QRCode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// formatAnswer turns an answer into display text.
func formatAnswer(a models.Answer) string {
	if a.IsBlank() {
		return "-"
	}
	switch a.Kind {
	case models.AnswerList:
		return strings.Join(a.List, ", ")
	case models.AnswerFile:
		return a.File.Name
	default:
		return a.Text
	}
}
