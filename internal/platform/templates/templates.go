// Package templates renders outbound email bodies and the confirmation pages
// served by the unauthenticated email-link endpoints.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed emails/*.html emails/*.txt pages/*.html
var files embed.FS

// Field is a labelled value shown in a notice or page.
type Field struct {
	Label string
	Value string
}

// Action is a call-to-action link.
type Action struct {
	Label string
	URL   string
}

// Notice is the data for every notification email.
type Notice struct {
	Subject   string
	Recipient string
	Headline  string
	Lines     []string
	Fields    []Field
	Actions   []Action
}

// Page is the data for a link confirmation page. Tone is "success", "info"
// or "warning". Confirm, when set, renders a form that POSTs to its URL.
type Page struct {
	Title   string
	Heading string
	Message string
	Tone    string
	Fields  []Field
	Confirm *Action
}

// Body is a rendered email with its plain-text fallback.
type Body struct {
	HTML string
	Text string
}

type Renderer struct {
	html  *htmltemplate.Template
	text  *texttemplate.Template
	pages *htmltemplate.Template
}

// New parses the embedded templates. A parse failure is a programming error
// surfaced at startup.
func New() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(files, "emails/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html email templates: %w", err)
	}
	text, err := texttemplate.ParseFS(files, "emails/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text email templates: %w", err)
	}
	pages, err := htmltemplate.ParseFS(files, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Renderer{html: html, text: text, pages: pages}, nil
}

// MustNew is New for tests and static wiring.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Notice renders a notification email.
func (r *Renderer) Notice(n Notice) (Body, error) {
	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, "notice.html", n); err != nil {
		return Body{}, fmt.Errorf("render html notice: %w", err)
	}
	if err := r.text.ExecuteTemplate(&text, "notice.txt", n); err != nil {
		return Body{}, fmt.Errorf("render text notice: %w", err)
	}
	return Body{HTML: html.String(), Text: text.String()}, nil
}

// Page renders a link confirmation page.
func (r *Renderer) Page(p Page) ([]byte, error) {
	if p.Tone == "" {
		p.Tone = "info"
	}
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, "link_result.html", p); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
