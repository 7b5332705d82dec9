package source

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// FileSource serves documents out of a static directory, the way a web
// server exposes its public/ folder. Keys are slash separated paths.
type FileSource struct {
	fsys fs.FS
}

func NewFileSource(fsys fs.FS) *FileSource {
	return &FileSource{fsys: fsys}
}

func (s *FileSource) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RetrievalError{Key: key, Status: "canceled", Err: err}
	}
	name := strings.TrimPrefix(path.Clean("/"+key), "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, &domain.RetrievalError{Key: key, StatusCode: http.StatusBadRequest, Status: http.StatusText(http.StatusBadRequest)}
	}

	data, err := fs.ReadFile(s.fsys, name)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, &domain.RetrievalError{Key: key, StatusCode: http.StatusNotFound, Status: http.StatusText(http.StatusNotFound)}
	case errors.Is(err, fs.ErrPermission):
		return nil, &domain.RetrievalError{Key: key, StatusCode: http.StatusForbidden, Status: http.StatusText(http.StatusForbidden)}
	default:
		return nil, &domain.RetrievalError{Key: key, Status: "read failure", Err: err}
	}
}
