package post

import (
	"cmp"
	"strings"
	"time"

	"github.com/lysyi3m/post-comb/app/record"
)

const baseURL = "https://www.linkedin.com"

// attempt is one candidate source for a field. The first attempt that
// reports a value wins.
type attempt[T any] func() (T, bool)

func firstPresent[T any](attempts ...attempt[T]) (T, bool) {
	for _, try := range attempts {
		if v, ok := try(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// firstText is firstPresent for plain string lookups, where "" means absent.
func firstText(attempts ...func() string) string {
	for _, try := range attempts {
		if s := try(); s != "" {
			return s
		}
	}
	return ""
}

func value(s string) func() string {
	return func() string { return s }
}

// firstKey returns the value of the first key present in r, whatever it holds.
func firstKey(r record.Record, keys ...string) any {
	for _, k := range keys {
		if r.Has(k) {
			return r.Get(k)
		}
	}
	return nil
}

// firstTruthy returns the first value among keys that carries data.
func firstTruthy(r record.Record, keys ...string) any {
	for _, k := range keys {
		if v := r.Get(k); record.Truthy(v) {
			return v
		}
	}
	return nil
}

// extraction reads canonical fields out of one classified record.
type extraction struct {
	env      record.Envelope
	body     record.Record
	raw      record.Record
	actorNav record.Record
	tracking string
}

func newExtraction(env record.Envelope) *extraction {
	e := &extraction{
		env:      env,
		body:     env.Body,
		raw:      env.Raw,
		actorNav: env.Body.Map("actorNavigationContext"),
	}
	e.tracking = e.trackingURN()
	return e
}

func (e *extraction) trackingURN() string {
	if e.env.Wrapped() {
		metadata := e.body.Map("metadata")
		return firstText(
			value(metadata.Str("backendUrn")),
			value(metadata.Str("shareUrn")),
			value(e.body.Str("entityUrn")),
			value(e.raw.Str("trackingUrn")),
		)
	}
	return firstText(
		value(e.body.Str("trackingUrn")),
		value(e.body.Str("dashEntityUrn")),
		value(e.body.Str("entityUrn")),
		value(e.body.Str("urn")),
		value(e.actorNav.Str("trackingUrn")),
		value(e.actorNav.Str("entityUrn")),
	)
}

func (e *extraction) id() string {
	return firstText(
		func() string { return lastSegment(e.tracking) },
		func() string { return scalar(e.body.Get("id")) },
		func() string { return scalar(e.raw.Get("id")) },
		e.raw.JSON,
	)
}

func (e *extraction) text() string {
	return firstText(
		e.commentaryText,
		func() string { return e.body.Text("summary") },
		func() string { return e.actorNav.Text("summary") },
		e.rawText,
	)
}

func (e *extraction) commentaryText() string {
	commentary := e.body.Map("commentary")
	if !commentary.Has("text") {
		return ""
	}
	switch v := commentary.Get("text").(type) {
	case map[string]any:
		return record.Record(v).Str("text")
	case string:
		return v
	default:
		return record.Stringify(v)
	}
}

func (e *extraction) rawText() string {
	v := firstTruthy(e.body, "text", "description", "content")
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]any); ok {
		return cmp.Or(record.Record(m).Str("text"), record.Stringify(m))
	}
	return record.Stringify(v)
}

func (e *extraction) title() string {
	return record.FirstMap(e.body.Map("title"), e.raw.Map("title")).Str("text")
}

func (e *extraction) primarySubtitle() string {
	return record.FirstMap(e.body.Map("primarySubtitle"), e.raw.Map("primarySubtitle")).Str("text")
}

func (e *extraction) secondarySubtitle() string {
	return record.FirstMap(e.body.Map("secondarySubtitle"), e.raw.Map("secondarySubtitle")).Str("text")
}

func (e *extraction) template() string {
	return cmp.Or(e.body.Str("template"), e.raw.Str("template"))
}

// relativeTime is the provider's "20h •" style age string.
func (e *extraction) relativeTime() string {
	var source record.Record
	if e.env.Wrapped() {
		source = e.body.Path("actor", "subDescription")
	} else {
		source = e.body.Map("secondarySubtitle")
	}
	return cmp.Or(source.Str("text"), source.Str("accessibilityText"))
}

func (e *extraction) createdAt(now time.Time, job bool) string {
	parseRelative := func() string {
		if t, ok := ParseRelativeTime(e.relativeTime(), now); ok {
			return FormatTimestamp(t)
		}
		return ""
	}

	attempts := []func() string{}
	if e.env.Wrapped() {
		attempts = append(attempts, parseRelative)
	}
	attempts = append(attempts,
		func() string {
			return timestamp(firstTruthy(e.body, "createdAt", "created", "time", "publishedAt", "createdTime", "publishedTime"))
		},
		func() string { return timestamp(firstTruthy(e.actorNav, "createdAt", "created")) },
	)
	if job {
		attempts = append(attempts, e.jobPostedAt)
	}
	attempts = append(attempts, parseRelative)

	return firstText(attempts...)
}

func (e *extraction) jobPostedAt() string {
	insights := e.body.Maps("insightsResolutionResults")
	if len(insights) == 0 {
		insights = e.raw.Maps("insightsResolutionResults")
	}
	if len(insights) == 0 {
		return ""
	}
	item := insights[0].Map("jobPostingFooterInsight").MapAt("footerItems", 0)
	ms, ok := record.Number(item.Get("timeAt"))
	if !ok || ms == 0 {
		return ""
	}
	return FormatTimestamp(time.UnixMilli(int64(ms)))
}

func (e *extraction) updatedAt() string {
	return cmp.Or(
		timestamp(firstKey(e.body, "updatedAt", "updated")),
		timestamp(firstKey(e.raw, "updatedAt", "updated")),
	)
}

func (e *extraction) author(job bool) Author {
	actor := e.body.Map("actor")
	image := e.actorNav.Map("image")
	headline := record.FirstMap(e.body.Map("headline"), e.raw.Map("headline"))
	resultImage := record.FirstMap(e.body.Map("image"), e.raw.Map("image"))

	var nameAttempts []func() string
	if e.env.Wrapped() {
		nameAttempts = append(nameAttempts, func() string { return actor.Text("name") })
	}
	if job {
		nameAttempts = append(nameAttempts, e.primarySubtitle)
	}
	nameAttempts = append(nameAttempts,
		func() string { return image.Str("accessibilityText") },
		func() string { return e.actorNav.Text("title") },
		func() string { return firstAttribute(image.Maps("attributes"), "accessibilityText") },
		func() string {
			before, _, _ := strings.Cut(headline.Str("text"), "•")
			return strings.TrimSpace(before)
		},
		func() string {
			for _, attr := range headline.Maps("attributes") {
				if name := attr.Path("detailData", "actorName").Str("text"); name != "" {
					return name
				}
			}
			return ""
		},
		func() string { return resultImage.Str("accessibilityText") },
		func() string { return firstAttribute(resultImage.Maps("accessibilityTextAttributes"), "text") },
	)

	var urnAttempts []func() string
	if e.env.Wrapped() {
		urnAttempts = append(urnAttempts, func() string { return actor.Str("backendUrn") })
	}
	urnAttempts = append(urnAttempts,
		func() string { return e.actorNav.Str("entityUrn") },
		func() string { return e.actorNav.Str("trackingUrn") },
		func() string {
			return image.MapAt("attributes", 0).Path("detailData", "nonEntityProfilePicture", "profile").Str("entityUrn")
		},
		func() string {
			for _, attr := range headline.Maps("attributes") {
				detail := attr.Map("detailData")
				if urn := cmp.Or(detail.Str("urn"), detail.Str("profile")); urn != "" {
					return urn
				}
			}
			return ""
		},
	)

	var profileAttempts []func() string
	if e.env.Wrapped() {
		profileAttempts = append(profileAttempts, func() string { return actor.Map("navigationContext").Str("actionTarget") })
	}
	profileAttempts = append(profileAttempts,
		func() string { return e.actorNav.Str("url") },
		func() string { return e.actorNav.Str("actorNavigationUrl") },
	)

	return Author{
		Name:       firstText(nameAttempts...),
		URN:        firstText(urnAttempts...),
		ProfileURL: firstText(profileAttempts...),
	}
}

func (e *extraction) engagement() (likes, comments, shares int) {
	if e.env.Wrapped() {
		if counts := e.body.Path("socialDetail", "totalSocialActivityCounts"); counts != nil {
			return count(counts.Get("numLikes")), count(counts.Get("numComments")), count(counts.Get("numShares"))
		}
	}
	return count(firstKey(e.body, "numLikes", "likes", "likeCount")),
		count(firstKey(e.body, "numComments", "comments", "commentCount")),
		count(firstKey(e.body, "numShares", "shares", "shareCount"))
}

func (e *extraction) url() string {
	var attempts []func() string
	if e.env.Wrapped() {
		attempts = append(attempts,
			func() string { return e.body.Path("header", "navigationContext").Str("actionTarget") },
			func() string { return e.body.Map("socialDetail").Str("shareUrl") },
			func() string {
				backend := e.body.Map("metadata").Str("backendUrn")
				if !strings.Contains(backend, "activity:") {
					return ""
				}
				return activityURL(lastSegment(backend))
			},
		)
	} else {
		attempts = append(attempts,
			func() string { return e.body.Str("navigationUrl") },
			func() string { return e.body.Map("navigationContext").Str("url") },
			func() string { return e.body.Str("url") },
			func() string { return e.body.Str("postUrl") },
			func() string { return e.body.Str("permalink") },
		)
	}
	attempts = append(attempts, func() string { return urlFromTracking(e.tracking) })

	return firstText(attempts...)
}

func (e *extraction) company(job bool) (name, urn string) {
	if e.env.Wrapped() {
		group := e.body.Path("metadata", "group")
		name = group.Str("name")
		urn = group.Str("entityUrn")
		if name == "" {
			name = e.body.Path("content", "entityComponent").Text("subtitle")
		}
	}

	if job && name == "" {
		name = e.primarySubtitle()
		if c := companyLogo(record.FirstMap(e.body.Map("image"), e.raw.Map("image"))); c != nil {
			urn = cmp.Or(c.Str("entityUrn"), urn)
			name = cmp.Or(name, c.Str("name"))
		}
	}

	if name == "" || urn == "" {
		embedded := record.FirstMap(e.body.Map("entityEmbeddedObject"), e.raw.Map("entityEmbeddedObject"))
		name = cmp.Or(name, embedded.Text("title"))
		if c := companyLogo(embedded.Map("image")); c != nil {
			urn = cmp.Or(urn, c.Str("entityUrn"))
			name = cmp.Or(name, c.Str("name"))
		}
	}

	return name, urn
}

func (e *extraction) media() []any {
	found, _ := firstPresent(
		func() (any, bool) {
			if !e.env.Wrapped() {
				return nil, false
			}
			content := e.body.Map("content")
			if component := content.Get("imageComponent"); record.Truthy(component) {
				return []any{component}, true
			}
			if image := content.Map("entityComponent").Get("image"); record.Truthy(image) {
				return []any{image}, true
			}
			return nil, false
		},
		func() (any, bool) {
			if e.env.Wrapped() {
				return nil, false
			}
			v := firstKey(e.body, "media", "images", "image")
			return v, record.Truthy(v)
		},
		func() (any, bool) {
			if e.env.Wrapped() {
				return nil, false
			}
			v := e.body.Get("actorImages")
			return v, record.Truthy(v)
		},
		func() (any, bool) {
			if e.env.Wrapped() {
				return nil, false
			}
			image := e.actorNav.Get("image")
			return []any{image}, record.Truthy(image)
		},
	)
	if found == nil {
		return nil
	}

	list, ok := found.([]any)
	if !ok {
		return []any{found}
	}
	if len(list) > maxMedia {
		list = list[:maxMedia]
	}
	return append([]any(nil), list...)
}

func (e *extraction) postType() string {
	return cmp.Or(e.body.Str("type"), e.raw.Str("type"), e.template(), TypeStandard)
}

func (e *extraction) visibility() string {
	if e.env.Wrapped() {
		return e.body.Map("metadata").Str("shareAudience")
	}
	return record.Stringify(firstKey(e.body, "visibility", "privacy"))
}

func (e *extraction) language() string {
	return cmp.Or(e.body.Str("language"), e.raw.Str("language"))
}

func (e *extraction) entityURN() string {
	return cmp.Or(e.body.Str("entityUrn"), e.raw.Str("entityUrn"))
}

func (e *extraction) trackingID() string {
	return cmp.Or(e.raw.Str("trackingId"), e.body.Str("trackingId"))
}

// serialized is the case-insensitive full-text surface used by keyword
// matching: the raw record plus, for wrapped updates, the unwrapped body.
func (e *extraction) serialized() string {
	s := e.raw.JSON()
	if e.env.Wrapped() {
		s += " " + e.body.JSON()
	}
	return s
}

func firstAttribute(attrs []record.Record, key string) string {
	for _, attr := range attrs {
		if s := attr.Str(key); s != "" {
			return s
		}
	}
	return ""
}

func companyLogo(image record.Record) record.Record {
	for _, attr := range image.Maps("attributes") {
		if c := attr.Path("detailData", "nonEntityCompanyLogo", "company"); c != nil {
			return c
		}
	}
	return nil
}

func lastSegment(urn string) string {
	if !strings.Contains(urn, ":") {
		return ""
	}
	return urn[strings.LastIndex(urn, ":")+1:]
}

func activityURL(activityID string) string {
	return baseURL + "/feed/update/urn:li:activity:" + activityID
}

func urlFromTracking(tracking string) string {
	switch {
	case tracking == "":
		return ""
	case strings.HasPrefix(tracking, "urn:li:activity:"):
		return baseURL + "/feed/update/" + tracking
	case strings.Contains(tracking, "activity:"):
		return activityURL(lastSegment(tracking))
	case strings.HasPrefix(tracking, "urn:li:job:"):
		return baseURL + "/jobs/view/" + lastSegment(tracking) + "/"
	}
	return ""
}

// scalar stringifies ids; objects are not ids.
func scalar(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return record.Stringify(v)
}

// timestamp renders a date-ish provider value. Numbers are epoch milliseconds.
func timestamp(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	if ms, ok := record.Number(v); ok {
		if ms == 0 {
			return ""
		}
		return FormatTimestamp(time.UnixMilli(int64(ms)))
	}
	return record.Stringify(v)
}

func count(v any) int {
	n, ok := record.Number(v)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}
