package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"tinyrivals/internal/rivalry"
)

//go:embed html/*.html
var files embed.FS

var (
	commit = "dev"

	once  sync.Once
	pages map[string]*template.Template
	err   error
)

// SetCommit records the build commit shown in the page footer.
func SetCommit(c string) {
	if c != "" {
		commit = c
	}
}

// Commit returns the build commit shown in the page footer.
func Commit() string { return commit }

// View is the data every page is rendered with.
type View struct {
	Title         string
	Authenticated bool
	Error         string
	Data          any
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(rivalry.DateLayout) },
	"commit": func() string {
		return commit
	},
	"kinds": func() []rivalry.Kind { return rivalry.Kinds },
}

// Names lists the page templates that can be rendered.
var Names = []string{
	"index", "games", "rivalries", "about", "login", "players", "player",
	"new_player", "new_game", "new_outcome", "error",
}

func load() {
	pages = make(map[string]*template.Template, len(Names))
	for _, name := range Names {
		t, e := template.New("layout.html").Funcs(funcs).ParseFS(files, "html/layout.html", "html/"+name+".html")
		if e != nil {
			err = fmt.Errorf("parse template %s: %w", name, e)
			return
		}
		pages[name] = t
	}
}

// Load parses every page template once.
func Load() error {
	once.Do(load)
	return err
}

// Render executes the named page into w with the given status.
func Render(w http.ResponseWriter, status int, name string, v View) {
	if e := Load(); e != nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	t, ok := pages[name]
	if !ok {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if e := t.ExecuteTemplate(&buf, "layout.html", v); e != nil {
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
