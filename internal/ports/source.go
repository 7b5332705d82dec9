package ports

import "context"

// Source retrieves raw documents by key. Failures are reported as
// *domain.RetrievalError.
type Source interface {
	Retrieve(ctx context.Context, key string) ([]byte, error)
}
