package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehub-api/models"
	"notehub-api/types"
)

func TestClientUpdateNote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notes/abc123def456", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		var req types.UpdateNoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.NewPublishStatus)
		require.NotNil(t, req.ChangeDict.Title)
		assert.Nil(t, req.ChangeDict.Subtitle)

		note := models.Note{ID: "abc123def456", Title: *req.ChangeDict.Title}
		note.URLFragment = models.GenerateURLFragment(note.Title, note.ID)
		json.NewEncoder(w).Encode(types.UpdateNoteResponse{Note: note})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, WithToken("token123"))
	title := "Fresh Title"
	note, err := c.UpdateNote(context.Background(), "abc123def456", true, models.NoteChange{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Title", note.Title)
	assert.Equal(t, "fresh-title-abc123def456", note.URLFragment)
}

func TestClientTitleExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notes/abc123def456/title-exists", func(w http.ResponseWriter, r *http.Request) {
		exists := r.URL.Query().Get("title") == "Taken Title"
		json.NewEncoder(w).Encode(types.TitleExistsResponse{NoteExists: exists})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	exists, err := c.TitleExists(context.Background(), "abc123def456", "Taken Title")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.TitleExists(context.Background(), "abc123def456", "Free Title")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClientDecodesValidationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notes/abc123def456", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "validation_failed",
				"message": "note is not ready to publish",
				"issues":  []string{"title should not be less than 5 characters", "content should not be empty"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.UpdateNote(context.Background(), "abc123def456", true, models.NoteChange{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "note is not ready to publish", apiErr.Message)
	assert.Contains(t, apiErr.Issues, "content should not be empty")
}

func TestClientDecodesPlainError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/home/notes/missing-note", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "note not found"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.NoteByURL(context.Background(), "missing-note")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "note not found", apiErr.Message)
}
