package handlers

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;font-family:system-ui,sans-serif;background:#f8f9fa}
.alert{padding:1rem 1.5rem;border-radius:.375rem;border:1px solid transparent}
.alert-danger{color:#842029;background:#f8d7da;border-color:#f5c2c7}
.alert-warning{color:#664d03;background:#fff3cd;border-color:#ffecb5}
</style>
</head>
<body>
<div class="alert alert-{{.Variant}}" role="alert">{{.Message}}</div>
</body>
</html>
`))

type page struct {
	Title   string
	Variant string
	Message string
}

func renderPage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, p)
}

// Redirect resolves /r/{shortId}. The decision is never cacheable: every
// response carries Cache-Control: no-store.
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortId")

		res, err := d.Links.Resolve(r.Context(), shortID)
		if err != nil {
			d.Logger.Error("link resolution failed",
				logger.String("short_id", shortID),
				logger.Error(err))
			renderPage(w, http.StatusInternalServerError, page{
				Title:   "Error",
				Variant: "danger",
				Message: "Something went wrong. Please try again later.",
			})
			return
		}

		switch res.Outcome {
		case links.OutcomeRedirect:
			d.Logger.Debug("redirecting",
				logger.String("short_id", shortID))
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, res.Target, http.StatusFound)

		case links.OutcomeExpired:
			d.Logger.Debug("expired link requested",
				logger.String("short_id", shortID),
				logger.String("expired_at", res.ExpiredAt))
			renderPage(w, http.StatusGone, page{
				Title:   "Link expired",
				Variant: "warning",
				Message: "This link has expired. (Expired at: " + res.ExpiredAt + ")",
			})

		default:
			renderPage(w, http.StatusNotFound, page{
				Title:   "Link not found",
				Variant: "danger",
				Message: "Link not found.",
			})
		}
	}
}
