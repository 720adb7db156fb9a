package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// MediaValidator checks an uploaded file against the size limit and the
// allowed types. The type is sniffed from the content, the client supplied
// Content-Type isn't trusted. On success the returned file is rewound.
func MediaValidator(fh *multipart.FileHeader, allowedTypes []string, maxFileSize int64) (int, multipart.File, *mimetype.MIME, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, nil, ErrFileNameTooLong
	}

	if fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	if len(allowedTypes) > 0 && !mimeAllowed(mime, allowedTypes) {
		f.Close()
		return http.StatusUnsupportedMediaType, nil, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	return 0, f, mime, nil
}

func mimeAllowed(mime *mimetype.MIME, allowed []string) bool {
	for _, t := range allowed {
		if mime.Is(t) {
			return true
		}
	}

	return false
}
