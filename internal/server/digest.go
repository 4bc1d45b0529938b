package server

import (
	"html/template"
	"net/http"
	"time"

	"beacon/internal/logging"
	"beacon/internal/store"
	"beacon/internal/triage"
)

// digestPage renders the triage digest for humans. Kept deliberately
// plain; the JSON API is the surface for anything richer.
var digestPage = template.Must(template.New("digest").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Mon 02 Jan 15:04")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Beacon digest</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 56rem; color: #222; }
  h1 { font-size: 1.4rem; }
  .meta { color: #777; font-size: 0.85rem; margin-bottom: 1.5rem; }
  .msg { border-bottom: 1px solid #e5e5e5; padding: 0.8rem 0; }
  .score { display: inline-block; min-width: 2.2rem; text-align: center; border-radius: 4px;
           font-weight: 600; padding: 0.1rem 0.3rem; margin-right: 0.6rem; }
  .high { background: #fde2e2; } .mid { background: #fdf3d8; } .low { background: #e7f4e4; }
  .subject { font-weight: 600; }
  .from, .when { color: #777; font-size: 0.85rem; }
  .summary { margin: 0.3rem 0 0.2rem; }
  .category { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #555; }
  .actions { margin: 0.2rem 0 0; padding-left: 1.2rem; font-size: 0.9rem; }
  .empty { color: #777; margin-top: 2rem; }
</style>
</head>
<body>
<h1>Beacon digest</h1>
<div class="meta">{{len .Results}} messages &middot; generated {{fmtTime .GeneratedAt}}</div>
{{if not .Results}}<p class="empty">Nothing in the digest. Run a refresh to fetch mail.</p>{{end}}
{{range .Results}}
<div class="msg">
  <span class="score {{if ge .Score 70}}high{{else if ge .Score 40}}mid{{else}}low{{end}}">{{.Score}}</span>
  <span class="subject">{{.Subject}}</span>
  <span class="category">{{.Category}}</span><br>
  <span class="from">{{.From}}</span> <span class="when">{{fmtTime .Date}}</span>
  <p class="summary">{{.Summary}}</p>
  {{if .ActionItems}}<ul class="actions">{{range .ActionItems}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>
{{end}}
</body>
</html>
`))

type digestPageData struct {
	GeneratedAt time.Time
	Results     []*triage.Result
}

func (s *Server) handleDigestPage(w http.ResponseWriter, r *http.Request) {
	results, err := s.sc.Store().ListTriage(r.Context(), listPageOptions(r))
	if err != nil {
		s.logger.Error("digest page query failed", logging.Operation("digest_page"), logging.Err(err))
		http.Error(w, "failed to load digest", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := digestPage.Execute(w, digestPageData{
		GeneratedAt: time.Now(),
		Results:     results,
	}); err != nil {
		s.logger.Error("digest page render failed", logging.Operation("digest_page"), logging.Err(err))
	}
}

func listPageOptions(r *http.Request) store.ListOptions {
	opts := store.ListOptions{Limit: defaultPageLimit}
	if raw := r.URL.Query().Get("category"); raw != "" {
		if c := triage.ParseCategory(raw); c == triage.Category(raw) {
			opts.Category = c
		}
	}
	return opts
}
