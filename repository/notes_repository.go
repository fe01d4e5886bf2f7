package repository

import (
	"database/sql"

	"notehub-api/models"
)

type NotesRepository struct {
	db *sql.DB
}

func NewNotesRepository(db *sql.DB) *NotesRepository {
	return &NotesRepository{db: db}
}

const summaryColumns = `
	n.id, u.username, u.displayed_author_name, n.title, n.subtitle,
	n.summary, n.url_fragment, n.last_updated, n.published_on`

func scanSummary(row interface{ Scan(...interface{}) error }) (*models.NoteSummary, error) {
	var s models.NoteSummary
	var lastUpdated, publishedOn sql.NullTime
	err := row.Scan(
		&s.ID, &s.AuthorUsername, &s.DisplayedAuthorName, &s.Title,
		&s.Subtitle, &s.Summary, &s.URLFragment, &lastUpdated, &publishedOn)
	if err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time
		s.LastUpdated = &t
	}
	if publishedOn.Valid {
		t := publishedOn.Time
		s.PublishedOn = &t
	}
	return &s, nil
}

// CreateDraft inserts an empty draft note owned by the author and registers
// the author as its first editor.
func (r *NotesRepository) CreateDraft(authorID int) (*models.Note, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	noteID := models.NewNoteID()
	urlFragment := models.GenerateURLFragment("", noteID)
	_, err = tx.Exec(`
		INSERT INTO note (id, author_id, url_fragment, created_at, last_updated)
		VALUES ($1, $2, $3, NOW(), NOW())`,
		noteID, authorID, urlFragment)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		INSERT INTO note_editor (note_id, user_id)
		VALUES ($1, $2)`, noteID, authorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetNoteByID(noteID)
}

func (r *NotesRepository) scanNote(row *sql.Row) (*models.Note, error) {
	var note models.Note
	var lastUpdated, publishedOn sql.NullTime
	err := row.Scan(
		&note.ID, &note.AuthorID, &note.Title, &note.Subtitle, &note.Content,
		&note.URLFragment, &note.ThumbnailName, &lastUpdated, &publishedOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time
		note.LastUpdated = &t
	}
	if publishedOn.Valid {
		t := publishedOn.Time
		note.PublishedOn = &t
	}
	return &note, nil
}

func (r *NotesRepository) GetNoteByID(id string) (*models.Note, error) {
	return r.scanNote(r.db.QueryRow(`
		SELECT id, author_id, title, subtitle, content, url_fragment,
		       thumbnail_filename, last_updated, published_on
		FROM note
		WHERE id = $1`, id))
}

func (r *NotesRepository) GetNoteByURLFragment(urlFragment string) (*models.Note, error) {
	return r.scanNote(r.db.QueryRow(`
		SELECT id, author_id, title, subtitle, content, url_fragment,
		       thumbnail_filename, last_updated, published_on
		FROM note
		WHERE url_fragment = $1`, urlFragment))
}

// UpdateNote persists the editable fields of a note and refreshes its
// derived summary and timestamp.
func (r *NotesRepository) UpdateNote(note *models.Note) error {
	_, err := r.db.Exec(`
		UPDATE note
		SET title = $1, subtitle = $2, content = $3, summary = $4,
		    url_fragment = $5, published_on = $6, last_updated = NOW()
		WHERE id = $7`,
		note.Title, note.Subtitle, note.Content, note.Summarize(),
		note.URLFragment, note.PublishedOn, note.ID)
	return err
}

// SetPublished flips the publish state. Publishing stamps published_on only
// when the note is not already published; unpublishing clears it.
func (r *NotesRepository) SetPublished(id string, published bool) error {
	if published {
		_, err := r.db.Exec(`
			UPDATE note SET published_on = COALESCE(published_on, NOW()), last_updated = NOW()
			WHERE id = $1`, id)
		return err
	}
	_, err := r.db.Exec(`
		UPDATE note SET published_on = NULL, last_updated = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *NotesRepository) DeleteNote(id string) error {
	_, err := r.db.Exec(`DELETE FROM note WHERE id = $1`, id)
	return err
}

func (r *NotesRepository) SetThumbnail(id, filename string) error {
	_, err := r.db.Exec(`
		UPDATE note SET thumbnail_filename = $1, last_updated = NOW()
		WHERE id = $2`, filename, id)
	return err
}

// TitleExists reports whether any note other than noteID already uses the
// given title.
func (r *NotesRepository) TitleExists(title, noteID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM note WHERE title = $1 AND id <> $2
		)`, title, noteID).Scan(&exists)
	return exists, err
}

// IsEditor reports whether the user is in the editor list of the note.
func (r *NotesRepository) IsEditor(noteID string, userID int) (bool, error) {
	var ok bool
	err := r.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM note_editor WHERE note_id = $1 AND user_id = $2
		)`, noteID, userID).Scan(&ok)
	return ok, err
}

// GetEditorIDs returns the ids of every user with edit access to the note.
func (r *NotesRepository) GetEditorIDs(noteID string) ([]int, error) {
	rows, err := r.db.Query(`
		SELECT user_id FROM note_editor WHERE note_id = $1`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddEditor grants a user edit access to a note.
func (r *NotesRepository) AddEditor(noteID string, userID int) error {
	_, err := r.db.Exec(`
		INSERT INTO note_editor (note_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, noteID, userID)
	return err
}

func (r *NotesRepository) querySummaries(query string, args ...interface{}) ([]models.NoteSummary, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.NoteSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

// GetPublishedSummaries returns one feed page of published note summaries,
// newest published_on first, together with the total published count.
func (r *NotesRepository) GetPublishedSummaries(offset, limit int) ([]models.NoteSummary, int, error) {
	summaries, err := r.querySummaries(`
		SELECT `+summaryColumns+`
		FROM note n
		JOIN users u ON u.id = n.author_id
		WHERE n.published_on IS NOT NULL
		ORDER BY n.published_on DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM note WHERE published_on IS NOT NULL`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// SearchSummaries returns one page of published summaries matching the
// query. An empty query matches everything.
func (r *NotesRepository) SearchSummaries(query string, offset, limit int) ([]models.NoteSummary, error) {
	if query == "" {
		summaries, _, err := r.GetPublishedSummaries(offset, limit)
		return summaries, err
	}
	return r.querySummaries(`
		SELECT `+summaryColumns+`
		FROM note n
		JOIN users u ON u.id = n.author_id
		WHERE n.published_on IS NOT NULL
		  AND to_tsvector('english', n.title || ' ' || n.subtitle || ' ' || n.summary)
		      @@ websearch_to_tsquery('english', $1)
		ORDER BY n.published_on DESC
		LIMIT $2 OFFSET $3`, query, limit, offset)
}

// GetSummariesByAuthor returns one page of an author's published summaries
// and the author's published total.
func (r *NotesRepository) GetSummariesByAuthor(authorID, offset, limit int) ([]models.NoteSummary, int, error) {
	summaries, err := r.querySummaries(`
		SELECT `+summaryColumns+`
		FROM note n
		JOIN users u ON u.id = n.author_id
		WHERE n.author_id = $1 AND n.published_on IS NOT NULL
		ORDER BY n.published_on DESC
		LIMIT $2 OFFSET $3`, authorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM note
		WHERE author_id = $1 AND published_on IS NOT NULL`, authorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// GetEditorSummaries returns the summaries of every note the user can edit,
// filtered by publish status and ordered by last update.
func (r *NotesRepository) GetEditorSummaries(userID int, published bool) ([]models.NoteSummary, error) {
	predicate := "n.published_on IS NULL"
	if published {
		predicate = "n.published_on IS NOT NULL"
	}
	return r.querySummaries(`
		SELECT `+summaryColumns+`
		FROM note n
		JOIN users u ON u.id = n.author_id
		JOIN note_editor e ON e.note_id = n.id
		WHERE e.user_id = $1 AND `+predicate+`
		ORDER BY n.last_updated DESC`, userID)
}

// MoreByAuthor returns up to limit other published notes from the same
// author, for the single-note page sidebar.
func (r *NotesRepository) MoreByAuthor(authorID int, excludeNoteID string, limit int) ([]models.NoteSummary, error) {
	return r.querySummaries(`
		SELECT `+summaryColumns+`
		FROM note n
		JOIN users u ON u.id = n.author_id
		WHERE n.author_id = $1 AND n.id <> $2 AND n.published_on IS NOT NULL
		ORDER BY n.published_on DESC
		LIMIT $3`, authorID, excludeNoteID, limit)
}
