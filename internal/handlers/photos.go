package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/response"
)

const msgSelectFile = "Please select a file to upload!"

// saveUploadedPhoto stores the multipart "file" field and returns its public URL.
// Rejections are written to the response and reported as false.
func saveUploadedPhoto(c *gin.Context, photos storage.PhotoStore, owner string) (string, bool) {
	if photos == nil {
		response.Error(c, response.CodeServerError, "Failed to save file: photo storage is not configured")
		return "", false
	}

	header, err := c.FormFile("file")
	if err != nil || header.Size == 0 {
		response.Error(c, response.CodeBadRequest, msgSelectFile)
		return "", false
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, response.CodeServerError, "Failed to save file: "+err.Error())
		return "", false
	}
	defer file.Close()

	url, err := photos.Save(requestContext(c), owner, storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	switch {
	case err == nil:
		return url, true
	case errors.Is(err, storage.ErrEmptyFile):
		response.Error(c, response.CodeBadRequest, msgSelectFile)
	case errors.Is(err, storage.ErrUnknownContentType):
		response.Error(c, response.CodeBadRequest, "File type cannot be determined!")
	case errors.Is(err, storage.ErrNotImage):
		response.Error(c, response.CodeBadRequest, "Only image files are allowed!")
	default:
		response.Error(c, response.CodeServerError, "Failed to save file: "+err.Error())
	}
	return "", false
}

// discardPhoto removes a stored file whose owner turned out not to exist.
func discardPhoto(c *gin.Context, photos storage.PhotoStore, url string) {
	_ = photos.Delete(requestContext(c), url)
}
