package handlers

import (
	"net/http"

	"notehub-api/models"
	"notehub-api/pkg/events"
	"notehub-api/pkg/notify"
	"notehub-api/repository"
	"notehub-api/types"

	"github.com/gin-gonic/gin"
)

// NotesHandler serves the notes editor surface: dashboard, drafts and the
// change-dict based update flow.
type NotesHandler struct {
	repo      *repository.NotesRepository
	usersRepo *repository.UsersRepository
	notifier  notify.Notifier
}

func NewNotesHandler(repo *repository.NotesRepository, usersRepo *repository.UsersRepository) *NotesHandler {
	return &NotesHandler{repo: repo, usersRepo: usersRepo}
}

func (h *NotesHandler) WithNotifier(n notify.Notifier) *NotesHandler {
	h.notifier = n
	return h
}

// canEditNote reports whether the user may edit the note: note admins may
// edit any note, otherwise the user must be in the note's editor list.
func (h *NotesHandler) canEditNote(c *gin.Context, noteID string) (bool, error) {
	if c.GetBool("isNoteAdmin") {
		return true, nil
	}
	return h.repo.IsEditor(noteID, c.GetInt("userId"))
}

// Dashboard returns the caller's draft and published note summaries with
// their counts.
func (h *NotesHandler) Dashboard(c *gin.Context) {
	userID := c.GetInt("userId")
	published, err := h.repo.GetEditorSummaries(userID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	drafts, err := h.repo.GetEditorSummaries(userID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.DashboardResponse{
		NumOfPublishedNotes:       len(published),
		NumOfDraftNotes:           len(drafts),
		PublishedNoteSummaryDicts: published,
		DraftNoteSummaryDicts:     drafts,
	})
}

// CreateNote creates an empty draft and returns its id.
func (h *NotesHandler) CreateNote(c *gin.Context) {
	note, err := h.repo.CreateDraft(c.GetInt("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.CreateNoteResponse{NoteID: note.ID})
}

// GetNote populates the notes editor page.
func (h *NotesHandler) GetNote(c *gin.Context) {
	noteID := c.Param("noteId")
	if len(noteID) != models.NoteIDLength {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "Invalid note id"))
		return
	}
	note, err := h.repo.GetNoteByID(noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "The note with the given id doesn't exist"))
		return
	}
	c.JSON(http.StatusOK, types.NoteDataResponse{NoteDict: *note})
}

// UpdateNote applies a change dict and the requested publish-status
// transition, returning the updated note.
func (h *NotesHandler) UpdateNote(c *gin.Context) {
	noteID := c.Param("noteId")
	var req types.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, err.Error()))
		return
	}
	note, err := h.repo.GetNoteByID(noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "The note with the given id doesn't exist"))
		return
	}
	canEdit, err := h.canEditNote(c, noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !canEdit {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No edit access to the note"))
		return
	}

	wasPublished := note.PublishedOn != nil
	note.Apply(req.ChangeDict)
	if issues := note.Validate(req.NewPublishStatus); len(issues) > 0 {
		c.JSON(http.StatusBadRequest, types.NewValidationErrorResponse(issues))
		return
	}
	if req.NewPublishStatus {
		taken, err := h.repo.TitleExists(note.Title, note.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if taken {
			c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeConflict, "Note with the given title already exists"))
			return
		}
	}
	if err := h.repo.UpdateNote(note); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	if req.NewPublishStatus != wasPublished {
		if err := h.repo.SetPublished(noteID, req.NewPublishStatus); err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		h.notifyEditors(noteID, note.Title, req.NewPublishStatus)
	}

	updated, err := h.repo.GetNoteByID(noteID)
	if err != nil || updated == nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, "failed to reload note"))
		return
	}
	c.JSON(http.StatusOK, types.UpdateNoteResponse{Note: *updated})
}

// DeleteNote removes the note and everything derived from it.
func (h *NotesHandler) DeleteNote(c *gin.Context) {
	noteID := c.Param("noteId")
	note, err := h.repo.GetNoteByID(noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "The note with the given id doesn't exist"))
		return
	}
	canEdit, err := h.canEditNote(c, noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !canEdit {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No edit access to the note"))
		return
	}
	if err := h.repo.DeleteNote(noteID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.DeleteNoteResponse{Status: http.StatusOK})
}

// AddEditor grants another user edit access to the note. Only existing
// editors of the note (or note admins) may extend its editor list.
func (h *NotesHandler) AddEditor(c *gin.Context) {
	noteID := c.Param("noteId")
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, err.Error()))
		return
	}
	note, err := h.repo.GetNoteByID(noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "The note with the given id doesn't exist"))
		return
	}
	canEdit, err := h.canEditNote(c, noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !canEdit {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No edit access to the note"))
		return
	}
	user, err := h.usersRepo.GetUserByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "User with given username does not exist"))
		return
	}
	if err := h.repo.AddEditor(noteID, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{}))
}

// TitleExists reports whether another note already uses the given title.
func (h *NotesHandler) TitleExists(c *gin.Context) {
	noteID := c.Param("noteId")
	title := c.Query("title")
	if len(title) > models.MaxCharsInNoteTitle {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeInvalidRequest, "Title too long"))
		return
	}
	exists, err := h.repo.TitleExists(title, noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.TitleExistsResponse{NoteExists: exists})
}

func (h *NotesHandler) notifyEditors(noteID, title string, published bool) {
	if h.notifier == nil {
		return
	}
	event := events.NotePublishStatusChanged{
		Type:      events.TypeNotePublished,
		NoteID:    noteID,
		Title:     title,
		Published: published,
	}
	if !published {
		event.Type = events.TypeNoteUnpublished
	}
	editorIDs, err := h.repo.GetEditorIDs(noteID)
	if err != nil {
		return
	}
	for _, id := range editorIDs {
		h.notifier.NotifyUser(id, event)
	}
}
