package provider

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const baseURL = "https://www.linkedin.com"

// PublicID extracts the profile slug from a profile URL ("/in/<slug>")
// or returns the trimmed input when it is already a bare identifier.
// Plain names yield "".
func PublicID(person string) string {
	person = strings.TrimSpace(person)
	if _, after, ok := strings.Cut(person, "/in/"); ok {
		slug, _, _ := strings.Cut(after, "/")
		slug, _, _ = strings.Cut(slug, "?")
		return slug
	}
	if u, err := url.Parse(person); err == nil && u.Host != "" {
		return ""
	}
	if strings.ContainsAny(person, " /") {
		return ""
	}
	return person
}

// DeriveIdentity builds a display identity from a raw name, slug or
// profile URL without contacting the provider.
func DeriveIdentity(person string) Identity {
	person = strings.TrimSpace(person)
	id := PublicID(person)
	if id == "" {
		return Identity{Name: person}
	}

	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	// Drop the numeric or hex suffix LinkedIn appends to duplicate slugs.
	if n := len(words); n > 1 && isSuffix(words[n-1]) {
		words = words[:n-1]
	}

	return Identity{
		Name:       cases.Title(language.Und).String(strings.Join(words, " ")),
		ProfileURL: ProfileURL(id),
		PublicID:   id,
	}
}

func ProfileURL(publicID string) string {
	return baseURL + "/in/" + url.PathEscape(publicID) + "/"
}

func isSuffix(word string) bool {
	digits := 0
	for _, r := range word {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return digits > 0
}
