package source

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

func TestFileSourceRetrieve(t *testing.T) {
	fsys := fstest.MapFS{
		"sneakers/categories.json": &fstest.MapFile{Data: []byte(`{"categories":[]}`)},
	}
	src := NewFileSource(fsys)
	ctx := context.Background()

	body, err := src.Retrieve(ctx, "/sneakers/categories.json")
	require.NoError(t, err)
	assert.Equal(t, `{"categories":[]}`, string(body))

	// traversal is cleaned back into the root
	body, err = src.Retrieve(ctx, "/../sneakers/./categories.json")
	require.NoError(t, err)
	assert.Equal(t, `{"categories":[]}`, string(body))

	_, err = src.Retrieve(ctx, "/sneakers/products.json")
	var re *domain.RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.StatusCode)

	_, err = src.Retrieve(ctx, "/")
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
}

func TestFileSourceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource(fstest.MapFS{}).Retrieve(ctx, "/a.json")
	assert.ErrorIs(t, err, domain.ErrRetrieval)
	assert.ErrorIs(t, err, context.Canceled)
}
