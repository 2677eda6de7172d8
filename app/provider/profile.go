package provider

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

var profileURNPattern = regexp.MustCompile(`urn:li:fsd_profile:[A-Za-z0-9_-]+`)

// ResolveIdentity looks person up through the profile API and falls back
// to the public profile page title. Callers should fall back to
// DeriveIdentity when it fails.
func (c *VoyagerClient) ResolveIdentity(ctx context.Context, person string) (Identity, error) {
	creds, err := c.session()
	if err != nil {
		return Identity{}, err
	}

	publicID := PublicID(person)
	if publicID == "" {
		return Identity{}, fmt.Errorf("%w: %q is not a profile identifier", ErrProfileNotFound, person)
	}

	var profile struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		EntityURN   string `json:"entityUrn"`
		MiniProfile struct {
			EntityURN     string `json:"entityUrn"`
			DashEntityURN string `json:"dashEntityUrn"`
		} `json:"miniProfile"`
	}
	apiErr := c.getJSON(ctx, creds, "/voyager/api/identity/profiles/"+url.PathEscape(publicID), &profile)
	if apiErr == nil {
		identity := Identity{
			Name:       strings.TrimSpace(profile.FirstName + " " + profile.LastName),
			URN:        cmp.Or(profile.MiniProfile.DashEntityURN, profile.MiniProfile.EntityURN, profile.EntityURN),
			ProfileURL: ProfileURL(publicID),
			PublicID:   publicID,
		}
		if identity.Name != "" {
			return identity, nil
		}
	}
	if errors.Is(apiErr, ErrSessionRejected) {
		return Identity{}, apiErr
	}

	slog.Debug("Profile API lookup failed, reading profile page", "person", publicID, "error", apiErr)

	page, err := c.get(ctx, creds, "/in/"+url.PathEscape(publicID)+"/", "text/html")
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrProfileNotFound, err)
	}

	pageURL, _ := url.Parse(c.baseURL + "/in/" + publicID + "/")
	name, err := pageName(page, pageURL)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrProfileNotFound, err)
	}

	return Identity{
		Name:       name,
		URN:        string(profileURNPattern.Find(page)),
		ProfileURL: ProfileURL(publicID),
		PublicID:   publicID,
	}, nil
}

// pageName reads the person's name from a profile page title such as
// "Jane Doe - Staff Engineer - Acme | LinkedIn".
func pageName(data []byte, pageURL *url.URL) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to read profile page: %w", err)
	}

	name, _, _ := strings.Cut(article.Title, " | ")
	name, _, _ = strings.Cut(name, " - ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("no title on profile page")
	}

	slog.Debug("Profile name read from page", "name", name)
	return name, nil
}
