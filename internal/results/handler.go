// Package results renders the poll results page.
package results

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hn770123/line-recorder-bot-v3/internal/database"
)

// pollChoices is the fixed answer set, in display order.
var pollChoices = []string{"OK", "NG", "N/A"}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Poll results</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 40rem; padding: 0 1rem; }
h1 { font-size: 1.3rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: .5rem .75rem; text-align: left; }
th { background: #f5f5f5; }
.count { text-align: right; }
</style>
</head>
<body>
<h1>{{.Question}}</h1>
{{if .Translated}}<p>{{.Translated}}</p>{{end}}
<table>
<tr><th>Answer</th><th class="count">Count</th><th>Who</th></tr>
{{range .Choices}}
<tr><td>{{.Label}}</td><td class="count">{{len .Names}}</td><td>{{range $i, $n := .Names}}{{if $i}}, {{end}}{{$n}}{{end}}</td></tr>
{{end}}
</table>
<p>{{.Total}} answer(s)</p>
</body>
</html>
`

type choiceView struct {
	Label string
	Names []string
}

type pageView struct {
	Question   string
	Translated string
	Choices    []choiceView
	Total      int
}

// Store is the persistence capability the results page needs.
type Store interface {
	GetPost(ctx context.Context, id string) (*database.Post, error)
	ListAnswers(ctx context.Context, postID string) ([]database.AnswerRecord, error)
}

// Handler serves GET /polls/{postID}.
type Handler struct {
	store Store
	log   *slog.Logger
	tmpl  *template.Template
}

// NewHandler creates a results page handler.
func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With("component", "results"),
		tmpl:  template.Must(template.New("results").Parse(pageTemplate)),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID := chi.URLParam(r, "postID")

	post, err := h.store.GetPost(ctx, postID)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load poll post", "post_id", postID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if post == nil || !post.HasPoll {
		http.NotFound(w, r)
		return
	}

	answers, err := h.store.ListAnswers(ctx, postID)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load poll answers", "post_id", postID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	view := pageView{
		Question:   post.Message,
		Translated: post.Translated,
		Total:      len(answers),
	}
	byValue := make(map[string][]string, len(pollChoices))
	for _, a := range answers {
		name := a.DisplayName
		if name == "" {
			name = a.UserID
		}
		byValue[a.Value] = append(byValue[a.Value], name)
	}
	for _, choice := range pollChoices {
		view.Choices = append(view.Choices, choiceView{Label: choice, Names: byValue[choice]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, view); err != nil {
		h.log.ErrorContext(ctx, "Failed to render results page", "post_id", postID, "error", err)
	}
}
