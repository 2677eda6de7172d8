package post

// Post types assigned by the classifier. Flat results without either label
// keep the provider's own type or template string.
const (
	TypePost       = "POST"
	TypeJobPosting = "JOB_POSTING"
	TypeStandard   = "standard"
)

const (
	previewLength = 200
	maxMedia      = 5
)

type Post struct {
	ID               string   `json:"id"`
	URN              string   `json:"urn"`
	Text             string   `json:"text"`
	TextPreview      string   `json:"textPreview"`
	Keywords         []string `json:"keywords"`
	ScrapedAt        string   `json:"scrapedAt"`
	AuthorName       string   `json:"authorName"`
	AuthorURN        string   `json:"authorUrn"`
	AuthorProfileURL string   `json:"authorProfileUrl"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
	Likes            int      `json:"likes"`
	Comments         int      `json:"comments"`
	Shares           int      `json:"shares"`
	URL              string   `json:"url"`
	PostType         string   `json:"postType"`
	Visibility       string   `json:"visibility"`
	Language         string   `json:"language"`
	EntityURN        string   `json:"entityUrn"`
	TrackingID       string   `json:"trackingId"`
	Template         string   `json:"template"`
	CompanyName      string   `json:"companyName,omitempty"`
	CompanyURN       string   `json:"companyUrn,omitempty"`
	RelativeTime     string   `json:"relativeTime,omitempty"`
	Media            []any    `json:"media,omitempty"`
}

// Author is a resolved identity used to fill author fields that a record
// itself does not carry, e.g. posts fetched from a specific profile.
type Author struct {
	Name       string
	URN        string
	ProfileURL string
}

// Preview returns the first 200 characters of text.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}
