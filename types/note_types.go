package types

import "notehub-api/models"

// Wire contracts for the notes feature. Field names are persisted shapes
// consumed by existing clients; do not rename them.

// HomepageResponse is the offset-based published feed.
type HomepageResponse struct {
	NumOfNoteSummaries int                  `json:"no_of_note_summaries"`
	NoteSummaryDicts   []models.NoteSummary `json:"note_summary_dicts"`
}

// SearchResponse is one page of search results. A nil SearchOffset signals
// that no further pages exist.
type SearchResponse struct {
	SearchOffset      *int                 `json:"search_offset"`
	NoteSummariesList []models.NoteSummary `json:"note_summaries_list"`
}

// NotePageResponse is the public single-note page payload. SummaryDicts
// holds more published posts by the same author.
type NotePageResponse struct {
	AuthorUsername string               `json:"author_username"`
	NoteDict       models.Note          `json:"note_dict"`
	SummaryDicts   []models.NoteSummary `json:"summary_dicts"`
}

// AuthorPageResponse lists an author's published notes with their total.
type AuthorPageResponse struct {
	NumOfNoteSummaries int                  `json:"no_of_note_summaries"`
	SummaryDicts       []models.NoteSummary `json:"summary_dicts"`
}

// DashboardResponse backs the editor dashboard with draft and published
// summaries and their counts.
type DashboardResponse struct {
	NumOfPublishedNotes       int                  `json:"no_of_published_notes"`
	NumOfDraftNotes           int                  `json:"no_of_draft_notes"`
	PublishedNoteSummaryDicts []models.NoteSummary `json:"published_note_summary_dicts"`
	DraftNoteSummaryDicts     []models.NoteSummary `json:"draft_note_summary_dicts"`
}

// CreateNoteResponse returns the id of a freshly created draft.
type CreateNoteResponse struct {
	NoteID string `json:"note_id"`
}

// NoteDataResponse backs the notes editor page.
type NoteDataResponse struct {
	NoteDict models.Note `json:"note_dict"`
}

// UpdateNoteRequest applies a change dict and a publish-status transition.
type UpdateNoteRequest struct {
	NewPublishStatus bool              `json:"new_publish_status"`
	ChangeDict       models.NoteChange `json:"change_dict"`
}

// UpdateNoteResponse returns the note after an update.
type UpdateNoteResponse struct {
	Note models.Note `json:"note"`
}

// DeleteNoteResponse acknowledges a deletion.
type DeleteNoteResponse struct {
	Status int `json:"status"`
}

// TitleExistsResponse reports whether another note already uses a title.
type TitleExistsResponse struct {
	NoteExists bool `json:"note_exists"`
}

// ThumbnailResponse carries a presigned URL for a note thumbnail.
type ThumbnailResponse struct {
	URL string `json:"url"`
}
