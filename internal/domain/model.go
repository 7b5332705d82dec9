package domain

import (
	"fmt"
	"strings"
	"time"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityUltraRare Rarity = "ultra-rare"
)

// RarityAll is the filter value that matches every rarity tier.
const RarityAll = "all"

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityUltraRare:
		return true
	}
	return false
}

type Category struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Count       int    `json:"count"`
	Featured    string `json:"featured,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type Sneaker struct {
	Id     string   `json:"id"`
	Name   string   `json:"name"`
	Brand  string   `json:"brand"`
	Year   int      `json:"year"`
	Image  string   `json:"image"`
	Price  *float64 `json:"price,omitempty"`
	Rarity Rarity   `json:"rarity"`
	Slug   string   `json:"slug"`
}

// CategoriesPayload is the document served as categories.json.
type CategoriesPayload struct {
	Categories []Category `json:"categories"`
}

func (p *CategoriesPayload) Validate() error {
	if p.Categories == nil {
		return fmt.Errorf("%w: missing categories array", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(p.Categories))
	for i, c := range p.Categories {
		switch {
		case c.Name == "":
			return fmt.Errorf("%w: categories[%d]: empty name", ErrInvalidInput, i)
		case c.Slug == "":
			return fmt.Errorf("%w: categories[%d]: empty slug", ErrInvalidInput, i)
		case c.Count < 0:
			return fmt.Errorf("%w: categories[%d]: negative count %d", ErrInvalidInput, i, c.Count)
		}
		if _, dup := seen[c.Slug]; dup {
			return fmt.Errorf("%w: categories[%d]: duplicate slug %q", ErrInvalidInput, i, c.Slug)
		}
		seen[c.Slug] = struct{}{}
	}
	return nil
}

// SneakersPayload is the document served as products.json.
type SneakersPayload struct {
	Sneakers []Sneaker `json:"sneakers"`
}

func (p *SneakersPayload) Validate() error {
	if p.Sneakers == nil {
		return fmt.Errorf("%w: missing sneakers array", ErrInvalidInput)
	}
	for i, s := range p.Sneakers {
		switch {
		case s.Id == "":
			return fmt.Errorf("%w: sneakers[%d]: empty id", ErrInvalidInput, i)
		case s.Name == "":
			return fmt.Errorf("%w: sneakers[%d]: empty name", ErrInvalidInput, i)
		case s.Brand == "":
			return fmt.Errorf("%w: sneakers[%d]: empty brand", ErrInvalidInput, i)
		case !s.Rarity.Valid():
			return fmt.Errorf("%w: sneakers[%d]: unknown rarity %q", ErrInvalidInput, i, s.Rarity)
		}
	}
	return nil
}

// CategoryGrid is what the per-category page renders.
type CategoryGrid struct {
	Category Category  `json:"category"`
	Sneakers []Sneaker `json:"sneakers"`
	Shown    int       `json:"shown"`
	Total    int       `json:"total"`
}

type CacheEntryStats struct {
	Key      string        `json:"key"`
	DataSize int           `json:"dataSize"`
	Age      time.Duration `json:"age"`
	TTL      time.Duration `json:"ttl"`
}

type CacheStats struct {
	Size    int               `json:"size"`
	Entries []CacheEntryStats `json:"entries"`
}

// Inquiry is a contact form submission.
type Inquiry struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Product string `json:"product"`
	Size    string `json:"size"`
	Message string `json:"message,omitempty"`
}

func (i Inquiry) Validate() error {
	var missing []string
	if strings.TrimSpace(i.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(i.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(i.Product) == "" {
		missing = append(missing, "product")
	}
	if strings.TrimSpace(i.Size) == "" {
		missing = append(missing, "size")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// DocumentInfo describes a catalog document stored in the database.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}
