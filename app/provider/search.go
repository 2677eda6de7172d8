package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/lysyi3m/post-comb/app/record"
)

const (
	searchPath    = "/voyager/api/graphql"
	searchQueryID = "voyagerSearchDashClusters.b0928897b71bd00a5a7291755dcd64f0"
	defaultLimit  = 50
)

// Search runs a content search and returns one record per result:
// flat entity results as-is and feed updates in their {"update": ...} form.
func (c *VoyagerClient) Search(ctx context.Context, q SearchQuery) ([]record.Record, error) {
	return c.searchClusters(ctx, q.Keywords, queryParameters(q.Filters, ""), q.Limit, q.Offset)
}

// ProfilePosts searches posts authored by who. Without a member urn it
// searches content mentioning the person's name instead.
func (c *VoyagerClient) ProfilePosts(ctx context.Context, who Identity, q ProfileQuery) ([]record.Record, error) {
	if member := memberID(who.URN); member != "" {
		return c.searchClusters(ctx, "", queryParameters(q.Filters, member), q.Limit, q.Offset)
	}

	name := strings.TrimSpace(who.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: no member urn or name", ErrProfileNotFound)
	}
	f := q.Filters
	f.ContentOnly = true
	return c.searchClusters(ctx, `"`+name+`"`, queryParameters(f, ""), q.Limit, q.Offset)
}

func (c *VoyagerClient) searchClusters(ctx context.Context, keywords, params string, limit, offset int) ([]record.Record, error) {
	creds, err := c.session()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	query := "(flagshipSearchIntent:SEARCH_SRP,queryParameters:" + params + ",includeFiltersInResponse:false)"
	if keywords != "" {
		query = "(keywords:" + url.QueryEscape(keywords) + "," + query[1:]
	}
	variables := fmt.Sprintf("(start:%d,count:%d,origin:GLOBAL_SEARCH_HEADER,query:%s)", offset, limit, query)

	body, err := c.get(ctx, creds, searchPath+"?variables="+variables+"&queryId="+searchQueryID, "application/json")
	if err != nil {
		return nil, err
	}

	var payload record.Record
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return flattenClusters(payload), nil
}

// queryParameters renders the restli filter list. member limits results
// to one author.
func queryParameters(f Filters, member string) string {
	var params []string
	if f.ContentOnly || member != "" {
		params = append(params, "(key:resultType,value:List(CONTENT))")
	}
	if window := datePosted(f.DaysBack); window != "" {
		params = append(params, "(key:datePosted,value:List("+window+"))")
	}
	if member != "" {
		params = append(params, "(key:fromMember,value:List("+member+"))")
	}
	return "List(" + strings.Join(params, ",") + ")"
}

// datePosted maps a day window onto the coarsest provider bucket that
// still covers it. Windows past a month are not filtered.
func datePosted(days int) string {
	switch {
	case days <= 0:
		return ""
	case days <= 1:
		return "past-24h"
	case days <= 7:
		return "past-week"
	case days <= 30:
		return "past-month"
	}
	return ""
}

func flattenClusters(payload record.Record) []record.Record {
	data := payload.Map("data")
	clusters := record.FirstMap(data.Map("searchDashClustersByAll"), data, payload)

	var out []record.Record
	for _, cluster := range clusters.Maps("elements") {
		for _, item := range cluster.Maps("items") {
			inner := item.Map("item")
			if update := inner.Map("searchFeedUpdate"); len(update) > 0 {
				if update.Has("update") {
					out = append(out, update)
				} else {
					out = append(out, record.Record{"update": map[string]any(update)})
				}
				continue
			}
			if result := inner.Map("entityResult"); len(result) > 0 {
				out = append(out, result)
			}
		}
	}
	return out
}

func memberID(urn string) string {
	if i := strings.LastIndex(urn, ":"); i >= 0 {
		return urn[i+1:]
	}
	return urn
}
