package handlers

import (
	"net/http"
	"path"
	"strings"

	"notehub-api/initializers"
	"notehub-api/repository"
	"notehub-api/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
)

// ThumbnailsHandler stores and serves note thumbnail images through MinIO.
type ThumbnailsHandler struct {
	repo *repository.NotesRepository
}

func NewThumbnailsHandler(repo *repository.NotesRepository) *ThumbnailsHandler {
	return &ThumbnailsHandler{repo: repo}
}

// Upload accepts a multipart "image" for the note, sniffs its real MIME
// type and stores it under the note id.
func (h *ThumbnailsHandler) Upload(c *gin.Context) {
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
	if !c.GetBool("isNoteAdmin") {
		isEditor, err := h.repo.IsEditor(noteID, c.GetInt("userId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if !isEditor {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No edit access to the note"))
			return
		}
	}

	// Limit request body size before reading multipart data
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, initializers.Conf.MaxSize)

	file, err := c.FormFile("image")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, types.NewErrorResponse(types.ErrorCodeValidation, "image size exceeds the limit"))
			return
		}
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "image is required"))
		return
	}

	// Detect real MIME type from content, not from the client header
	sniff, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "cannot open uploaded image"))
		return
	}
	mt, detectErr := mimetype.DetectReader(sniff)
	_ = sniff.Close()
	if detectErr != nil || mt == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "failed to detect image type"))
		return
	}
	contentType := strings.Split(mt.String(), ";")[0]
	if err := initializers.CheckImageAllowed(file.Size, contentType); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "cannot open uploaded image"))
		return
	}
	defer src.Close()

	objectName := noteID + mt.Extension()
	_, err = initializers.MinioClient.PutObject(
		c.Request.Context(),
		initializers.Conf.Bucket,
		objectName,
		src,
		file.Size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, "failed to store image: "+err.Error()))
		return
	}
	if err := h.repo.SetThumbnail(noteID, objectName); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(gin.H{"thumbnail_filename": objectName}))
}

// GetURL returns a presigned URL for the note's thumbnail.
func (h *ThumbnailsHandler) GetURL(c *gin.Context) {
	noteID := c.Param("noteId")
	note, err := h.repo.GetNoteByID(noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if note == nil || note.ThumbnailName == "" {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "No thumbnail for the given note"))
		return
	}
	url, err := initializers.GenerateThumbnailURL(note.ThumbnailName, path.Base(note.URLFragment))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.ThumbnailResponse{URL: url})
}
