// Package contact builds the WhatsApp deep links the storefront hands
// customers off to. Nothing is sent from the server.
package contact

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

const (
	DefaultNumber  = "8637358934"
	DefaultBaseURL = "https://wa.me"

	greeting = "Hello Sneaker House 👟"
)

// Sizes offered on the contact form.
var Sizes = []string{"UK 6", "UK 7", "UK 8", "UK 9", "UK 10", "UK 11", "UK 12"}

type Builder struct {
	number  string
	baseURL string
}

// NewBuilder returns a builder for the given shop number (digits only, no +).
// Empty arguments take the defaults.
func NewBuilder(number, baseURL string) *Builder {
	if number == "" {
		number = DefaultNumber
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{number: number, baseURL: strings.TrimRight(baseURL, "/")}
}

// InquiryLink validates the inquiry and renders it as a chat link.
func (b *Builder) InquiryLink(inq domain.Inquiry) (string, error) {
	if err := inq.Validate(); err != nil {
		return "", err
	}
	var msg strings.Builder
	msg.WriteString(greeting + "\n\n")
	msg.WriteString("I'd like to inquire about a sneaker.\n\n")
	fmt.Fprintf(&msg, "*Name:* %s\n", strings.TrimSpace(inq.Name))
	fmt.Fprintf(&msg, "*WhatsApp:* %s\n", strings.TrimSpace(inq.Phone))
	if email := strings.TrimSpace(inq.Email); email != "" {
		fmt.Fprintf(&msg, "*Email:* %s\n", email)
	}
	fmt.Fprintf(&msg, "*Product:* %s\n", strings.TrimSpace(inq.Product))
	fmt.Fprintf(&msg, "*Size:* %s\n", strings.TrimSpace(inq.Size))
	if note := strings.TrimSpace(inq.Message); note != "" {
		fmt.Fprintf(&msg, "*Message:* %s\n", note)
	}
	return b.link(msg.String()), nil
}

// OrderLink renders the order message for a product detail page.
func (b *Builder) OrderLink(productURL string) string {
	return b.link(greeting + "\n\nI'd like to order this sneaker:\n " + productURL)
}

func (b *Builder) link(msg string) string {
	return fmt.Sprintf("%s/%s?text=%s", b.baseURL, b.number, encode(msg))
}

// encode escapes like encodeURIComponent: spaces become %20, never '+'.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
