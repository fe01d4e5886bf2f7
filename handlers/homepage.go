package handlers

import (
	"net/http"

	"notehub-api/repository"
	"notehub-api/types"

	"github.com/gin-gonic/gin"
)

// moreByAuthorLimit caps the "more from this author" sidebar on the public
// note page.
const moreByAuthorLimit = 2

// HomepageHandler serves the public, unauthenticated note surface: the
// homepage feed, search, single note pages and author pages.
type HomepageHandler struct {
	repo      *repository.NotesRepository
	usersRepo *repository.UsersRepository
}

func NewHomepageHandler(repo *repository.NotesRepository, usersRepo *repository.UsersRepository) *HomepageHandler {
	return &HomepageHandler{repo: repo, usersRepo: usersRepo}
}

// Feed returns one page of the published feed plus the published total.
func (h *HomepageHandler) Feed(c *gin.Context) {
	offset := types.ParseOffset(c, "offset")
	summaries, total, err := h.repo.GetPublishedSummaries(offset, types.DefaultFeedPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.HomepageResponse{
		NumOfNoteSummaries: total,
		NoteSummaryDicts:   summaries,
	})
}

// Search returns one page of published summaries matching q, plus the
// offset to continue from. A null search_offset means no further pages; an
// empty q is a match-all listing, not an error.
func (h *HomepageHandler) Search(c *gin.Context) {
	query := c.Query("q")
	offset := 0
	if parsed := types.ParseOptionalOffset(c, "offset"); parsed != nil {
		offset = *parsed
	}
	summaries, err := h.repo.SearchSummaries(query, offset, types.DefaultSearchPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.SearchResponse{
		SearchOffset:      types.NextSearchOffset(offset, len(summaries), types.DefaultSearchPageSize),
		NoteSummariesList: summaries,
	})
}

// NoteByURL serves the public single-note page: the full note, its author
// and a few more published posts by the same author.
func (h *HomepageHandler) NoteByURL(c *gin.Context) {
	note, err := h.repo.GetNoteByURLFragment(c.Param("noteUrl"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil || note.PublishedOn == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "The note with the given url doesn't exist"))
		return
	}
	author, err := h.usersRepo.GetUserByID(note.AuthorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	authorUsername := "author account deleted"
	if author != nil {
		authorUsername = author.Username
	}
	more, err := h.repo.MoreByAuthor(note.AuthorID, note.ID, moreByAuthorLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NotePageResponse{
		AuthorUsername: authorUsername,
		NoteDict:       *note,
		SummaryDicts:   more,
	})
}

// AuthorPage lists one page of an author's published notes and their total.
func (h *HomepageHandler) AuthorPage(c *gin.Context) {
	author, err := h.usersRepo.GetUserByUsername(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if author == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "No author found for the given username"))
		return
	}
	offset := types.ParseOffset(c, "offset")
	summaries, total, err := h.repo.GetSummariesByAuthor(author.ID, offset, types.DefaultFeedPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.AuthorPageResponse{
		NumOfNoteSummaries: total,
		SummaryDicts:       summaries,
	})
}
