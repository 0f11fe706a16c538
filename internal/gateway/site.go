package gateway

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/soyeahso/cargoquote/internal/domain"
)

//go:embed templates/*.html static/*
var assets embed.FS

type pageData struct {
	Title    string
	Business domain.Business
	Tariff   Tariff
	WebChat  bool
}

// site renders the public pages.
type site struct {
	pages map[string]*template.Template
}

func newSite() (*site, error) {
	layout, err := template.ParseFS(assets, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	s := &site{pages: make(map[string]*template.Template)}
	for _, name := range []string{"index", "contacts"} {
		t, err := template.Must(layout.Clone()).ParseFS(assets, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}
		s.pages[name] = t
	}
	return s, nil
}

func (s *site) render(w http.ResponseWriter, page string, data pageData) error {
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

func staticFiles() http.Handler {
	sub, _ := fs.Sub(assets, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (s *Server) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		err := s.site.render(w, name, pageData{
			Title:    title,
			Business: s.business,
			Tariff:   s.tariff,
			WebChat:  s.webChat != nil,
		})
		if err != nil {
			s.log.Error().Err(err).Str("page", name).Msg("rendering page failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
