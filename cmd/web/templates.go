package main

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/justinas/nosurf"
	"github.com/michaelgov-ctrl/countdown/internal/models"
	"github.com/michaelgov-ctrl/countdown/timer"
	"github.com/michaelgov-ctrl/countdown/ui"
)

type templateData struct {
	CSRFToken string
	Flash     string
	Form      any
	Presets   []models.Preset
	Timers    []timer.Snapshot
}

func (app *application) newTemplateData(r *http.Request) templateData {
	var td = templateData{
		CSRFToken: nosurf.Token(r),
		Flash:     app.sessionManager.PopString(r.Context(), "flash"),
		Presets:   []models.Preset{},
		Timers:    []timer.Snapshot{},
	}

	for _, key := range app.timers.Keys() {
		if snap, ok := app.timers.Lookup(key); ok {
			td.Timers = append(td.Timers, snap)
		}
	}

	return td
}

// clock renders seconds as mm:ss, or h:mm:ss past the hour.
func clock(seconds uint32) string {
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}

var functions = template.FuncMap{
	"clock": clock,
}

func newTemplateCache() (map[string]*template.Template, error) {
	var cache = make(map[string]*template.Template)

	pages, err := fs.Glob(ui.Files, "html/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)

		patterns := []string{
			"html/base.tmpl.html",
			"html/partials/*.html",
			page,
		}

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return cache, nil
}
