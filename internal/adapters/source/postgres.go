package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// PostgresSource reads documents from the catalog_documents table. It never
// writes; repository.DocumentRepository publishes them.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Retrieve(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM catalog_documents WHERE path = $1", key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.RetrievalError{
				Key:        key,
				StatusCode: http.StatusNotFound,
				Status:     http.StatusText(http.StatusNotFound),
				Err:        fmt.Errorf("%w: no document %s in DB", domain.ErrNotFound, key),
			}
		}
		return nil, &domain.RetrievalError{
			Key:    key,
			Status: "database failure",
			Err:    fmt.Errorf("%w: failed to get document %s. %s", domain.ErrInternalDb, key, err.Error()),
		}
	}
	return body, nil
}
