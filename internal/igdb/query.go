package igdb

import (
	"strconv"
	"strings"
	"time"
)

// Field lists requested for each query kind
var (
	UpcomingFields = []string{
		"name", "summary", "rating", "first_release_date", "cover.url",
		"release_dates.date", "release_dates.human",
		"release_dates.platform.name", "release_dates.platform.abbreviation",
		"platforms.name", "platforms.abbreviation",
	}
	SearchFields   = []string{"name", "summary", "rating", "first_release_date", "cover.url", "platforms.name"}
	PlatformFields = []string{"name", "abbreviation"}
)

// PlatformCategories restricts platform listings to consoles, portable
// consoles and computers
var PlatformCategories = []int64{1, 5, 6}

// MaxPlatforms caps the platform listing
const MaxPlatforms = 500

// Query is one request body in the catalog query language:
//
//	[search "term"; ]fields a,b; [where c & d; ][sort s; ]limit n;
type Query struct {
	Search string
	Fields []string
	Where  []string
	Sort   string
	Limit  int
}

// String renders the query body
func (q Query) String() string {
	var b strings.Builder

	if q.Search != "" {
		b.WriteString(`search "`)
		b.WriteString(escapeSearch(q.Search))
		b.WriteString(`"; `)
	}

	b.WriteString("fields ")
	b.WriteString(strings.Join(q.Fields, ","))
	b.WriteString("; ")

	if len(q.Where) > 0 {
		b.WriteString("where ")
		b.WriteString(strings.Join(q.Where, " & "))
		b.WriteString("; ")
	}

	if q.Sort != "" {
		b.WriteString("sort ")
		b.WriteString(q.Sort)
		b.WriteString("; ")
	}

	b.WriteString("limit ")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString(";")

	return b.String()
}

func escapeSearch(term string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(term)
}

// UpcomingQuery selects games with a release date in [start, end), optionally
// on any of platformIDs, earliest first
func UpcomingQuery(start, end time.Time, limit int, platformIDs []int64) Query {
	where := []string{
		"release_dates.date >= " + strconv.FormatInt(start.Unix(), 10),
		"release_dates.date < " + strconv.FormatInt(end.Unix(), 10),
	}
	if ids := dedupe(platformIDs); len(ids) > 0 {
		where = append(where, "release_dates.platform = "+idList(ids))
	}

	return Query{
		Fields: UpcomingFields,
		Where:  where,
		Sort:   "release_dates.date asc",
		Limit:  limit,
	}
}

// SearchQuery is a free-text search on game names
func SearchQuery(term string, limit int) Query {
	return Query{
		Search: term,
		Fields: SearchFields,
		Limit:  limit,
	}
}

// PlatformsQuery lists the tracked platform categories by name
func PlatformsQuery() Query {
	return Query{
		Fields: PlatformFields,
		Where:  []string{"category = " + idList(PlatformCategories)},
		Sort:   "name asc",
		Limit:  MaxPlatforms,
	}
}

// idList renders the "any of" form, e.g. (6,48)
func idList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
