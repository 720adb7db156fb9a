package media

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"gallery/photo-api/internal"
	"gallery/photo-api/internal/model"
	"gallery/photo-api/internal/service"
	"gallery/photo-api/pkg/validators"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxFilesPerUpload = 50

type checkedFile struct {
	header *multipart.FileHeader
	file   multipart.File
	mime   *mimetype.MIME
}

// MediaUpload stores one or more files sent in the "files" form field. Every
// file is checked before anything is stored.
func MediaUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Request must be a multipart form")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "No files provided")
		return
	}

	if len(headers) > maxFilesPerUpload {
		badRequest(c, fmt.Sprintf("At most %d files can be uploaded at once", maxFilesPerUpload))
		return
	}

	files := make([]checkedFile, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.file.Close()
		}
	}()

	for _, fh := range headers {
		code, f, mime, err := validators.MediaValidator(fh, d.AllowedTypes, d.MaxUploadSize)
		if err != nil {
			if code == http.StatusInternalServerError {
				abortWithError(c, err, "Failed to read uploaded file")
				return
			}

			c.AbortWithStatusJSON(code, gin.H{
				"success":   false,
				"error":     fmt.Sprintf("%s: %s", fh.Filename, err.Error()),
				"requestID": requestID,
			})
			return
		}

		files = append(files, checkedFile{header: fh, file: f, mime: mime})
	}

	uploaded := []model.MediaItem{}
	errs := []string{}
	var firstErr error

	for _, f := range files {
		item, err := d.Uploader.Do(c.Request.Context(), userID, service.Upload{
			Name:     f.header.Filename,
			Body:     f.file,
			Size:     f.header.Size,
			MimeType: f.mime.String(),
			Ext:      f.mime.Extension(),
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			errs = append(errs, fmt.Sprintf("%s could not be uploaded", f.header.Filename))
			zap.L().Warn("Upload failed", zap.String("requestID", requestID), zap.String("name", f.header.Filename), zap.Error(err))
			continue
		}

		uploaded = append(uploaded, *item)
	}

	if len(uploaded) == 0 {
		abortWithError(c, firstErr, "Failed to upload files")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"photos":  views(d, uploaded),
		"count":   len(uploaded),
		"errors":  errs,
	})
}
