package events

// Event type identifiers delivered to note editors over the websocket.
const (
	TypeNotePublished   = "note.published"
	TypeNoteUnpublished = "note.unpublished"
)

// NotePublishStatusChanged is emitted when a note moves between the draft
// and published states. Changes should be additive.
type NotePublishStatusChanged struct {
	Type      string `json:"type"`
	NoteID    string `json:"note_id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
}
