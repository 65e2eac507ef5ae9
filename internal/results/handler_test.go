package results

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn770123/line-recorder-bot-v3/internal/database"
)

type fakeStore struct {
	post    *database.Post
	postErr error
	answers []database.AnswerRecord
	listErr error
}

func (f *fakeStore) GetPost(context.Context, string) (*database.Post, error) {
	return f.post, f.postErr
}

func (f *fakeStore) ListAnswers(context.Context, string) ([]database.AnswerRecord, error) {
	return f.answers, f.listErr
}

func serve(t *testing.T, store *fakeStore, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/polls/{postID}", NewHandler(store, slog.New(slog.DiscardHandler)).ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func answer(userID, displayName, value string) database.AnswerRecord {
	return database.AnswerRecord{
		Answer:      database.Answer{PostID: "post-1", UserID: userID, Value: value},
		DisplayName: displayName,
	}
}

func TestResultsPage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		post: &database.Post{
			ID:         "post-1",
			UserID:     "user-1",
			Message:    "drinks tomorrow?",
			Translated: "明日飲みに行きますか？",
			HasPoll:    true,
		},
		answers: []database.AnswerRecord{
			answer("user-1", "Taro", "OK"),
			answer("user-2", "Kasia", "OK"),
			answer("user-3", "", "NG"),
		},
	}

	rec := serve(t, store, "/polls/post-1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "drinks tomorrow?")
	assert.Contains(t, body, "明日飲みに行きますか？")
	assert.Contains(t, body, "Taro, Kasia")
	assert.Contains(t, body, "user-3", "anonymous respondents fall back to their id")
	assert.Contains(t, body, "3 answer(s)")
}

func TestResultsPageUnknownPost(t *testing.T) {
	t.Parallel()

	rec := serve(t, &fakeStore{}, "/polls/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsPageNonPollPost(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		post: &database.Post{ID: "post-1", UserID: "user-1", Message: "plain message"},
	}

	rec := serve(t, store, "/polls/post-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsPageStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{postErr: errors.New("db gone")}

	rec := serve(t, store, "/polls/post-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResultsPageEscapesQuestion(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		post: &database.Post{
			ID:      "post-1",
			UserID:  "user-1",
			Message: `<script>alert("x")</script>`,
			HasPoll: true,
		},
	}

	rec := serve(t, store, "/polls/post-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
}
