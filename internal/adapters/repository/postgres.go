package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// DocumentRepository is the write side of catalog_documents. The service only
// reads the table through source.PostgresSource.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func validPath(path string) error {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return fmt.Errorf("%w: document path %q must start with / and name a document", domain.ErrInvalidInput, path)
	}
	return nil
}

// PutDocument stores body under path, replacing any previous version.
func (r *DocumentRepository) PutDocument(ctx context.Context, path string, body []byte) error {
	if err := validPath(path); err != nil {
		return err
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w: document %s is not valid json", domain.ErrInvalidInput, path)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog_documents (path, body) VALUES ($1, $2)
		 ON CONFLICT (path) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		path, string(body))
	if err != nil {
		return fmt.Errorf("%w: failed to store document %s. %s", domain.ErrInternalDb, path, err.Error())
	}
	return nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT path, octet_length(body::text), updated_at FROM catalog_documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents. %s", domain.ErrInternalDb, err.Error())
	}
	defer rows.Close()

	docs := make([]domain.DocumentInfo, 0)
	for rows.Next() {
		var doc domain.DocumentInfo
		if err := rows.Scan(&doc.Path, &doc.Size, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan document. %s", domain.ErrInternalDb, err.Error())
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to list documents. %s", domain.ErrInternalDb, err.Error())
	}
	return docs, nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, path string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM catalog_documents WHERE path = $1", path)
	if err != nil {
		return fmt.Errorf("%w: failed to delete document %s. %s", domain.ErrInternalDb, path, err.Error())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to delete document %s. %s", domain.ErrInternalDb, path, err.Error())
	}
	if n == 0 {
		return fmt.Errorf("%w: no document %s in DB", domain.ErrNotFound, path)
	}
	return nil
}
