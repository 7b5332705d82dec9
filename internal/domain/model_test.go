package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoriesPayloadValidate(t *testing.T) {
	testCases := []struct {
		name    string
		payload CategoriesPayload
		wantErr bool
	}{
		{
			name:    "valid",
			payload: CategoriesPayload{Categories: []Category{{Name: "Jordan", Slug: "jordan", Count: 3}}},
		},
		{
			name:    "empty list is valid",
			payload: CategoriesPayload{Categories: []Category{}},
		},
		{
			name:    "missing array",
			wantErr: true,
		},
		{
			name:    "empty slug",
			payload: CategoriesPayload{Categories: []Category{{Name: "Jordan"}}},
			wantErr: true,
		},
		{
			name: "duplicate slug",
			payload: CategoriesPayload{Categories: []Category{
				{Name: "Jordan", Slug: "jordan"},
				{Name: "Air Jordan", Slug: "jordan"},
			}},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSneakersPayloadValidate(t *testing.T) {
	valid := Sneaker{Id: "1", Name: "AJ1", Brand: "Jordan", Rarity: RarityRare}
	assert.NoError(t, (&SneakersPayload{Sneakers: []Sneaker{valid}}).Validate())

	bad := valid
	bad.Rarity = "legendary"
	assert.ErrorIs(t, (&SneakersPayload{Sneakers: []Sneaker{bad}}).Validate(), ErrInvalidInput)

	noBrand := valid
	noBrand.Brand = ""
	assert.ErrorIs(t, (&SneakersPayload{Sneakers: []Sneaker{noBrand}}).Validate(), ErrInvalidInput)
}

func TestInquiryValidate(t *testing.T) {
	err := Inquiry{Name: "John", Phone: " "}.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "phone, product, size")

	assert.NoError(t, Inquiry{Name: "John", Phone: "+91 1", Product: "AJ1", Size: "UK 9"}.Validate())
}

func TestRetrievalErrorMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading: %w", &RetrievalError{Key: "/a.json", Err: cause})

	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrParse)

	var re *RetrievalError
	if assert.ErrorAs(t, err, &re) {
		assert.Equal(t, 0, re.StatusCode)
	}
	assert.Equal(t, "retrieval failed: /b.json: HTTP 404: Not Found",
		(&RetrievalError{Key: "/b.json", StatusCode: 404, Status: "Not Found"}).Error())
}
