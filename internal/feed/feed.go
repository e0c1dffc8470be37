// Package feed holds the selection and ordering rules behind the post feed.
// The rules are pure: the repository turns a Criteria into SQL, and Apply
// evaluates the same Criteria over posts held in memory.
package feed

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"peopleconnects/internal/models"
)

// Filter names a selection and ordering policy.
type Filter string

const (
	Global    Filter = "global"
	Following Filter = "following"
	Popular   Filter = "popular"
	Recent    Filter = "recent"
)

// RecentWindow is how far back the recent filter reaches.
const RecentWindow = 24 * time.Hour

// Filters lists every supported filter in display order.
var Filters = []Filter{Global, Following, Popular, Recent}

// ParseFilter reads a filter name. An empty name means Global.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Global, nil
	}
	f := Filter(s)
	if !slices.Contains(Filters, f) {
		return "", models.NewValidationError(fmt.Sprintf("unknown feed filter %q", s))
	}
	return f, nil
}

// Criteria is a resolved filter, independent of how posts are stored.
type Criteria struct {
	Filter Filter
	// Authors restricts the selection. nil means every author; an empty,
	// non-nil slice selects nothing.
	Authors []string
	// Since is the inclusive lower bound on CreatedAt; zero means unbounded.
	Since time.Time
	// ByLikes orders by like count before recency.
	ByLikes bool
}

// SelectsNothing reports whether no post can match.
func (c Criteria) SelectsNothing() bool {
	return c.Authors != nil && len(c.Authors) == 0
}

// Resolve turns a filter into criteria for viewer. following is the
// viewer's following set; it is ignored for anonymous viewers, who get an
// empty following feed.
func Resolve(f Filter, viewer models.Actor, following []string, now time.Time) Criteria {
	c := Criteria{Filter: f}
	switch f {
	case Following:
		if viewer.IsAnonymous() {
			c.Authors = []string{}
			break
		}
		authors := make([]string, 0, len(following)+1)
		authors = append(authors, following...)
		authors = append(authors, viewer.Username)
		slices.Sort(authors)
		c.Authors = slices.Compact(authors)
	case Popular:
		c.ByLikes = true
	case Recent:
		c.Since = now.Add(-RecentWindow)
	}
	return c
}

// Matches reports whether p is selected by c.
func (c Criteria) Matches(p *models.Post) bool {
	if c.Authors != nil {
		if _, found := slices.BinarySearch(c.Authors, p.Author); !found {
			return false
		}
	}
	if !c.Since.IsZero() && p.CreatedAt.Before(c.Since) {
		return false
	}
	return true
}

// Less is the total feed order: like count descending when byLikes, then
// CreatedAt descending, then ID ascending.
func Less(a, b *models.Post, byLikes bool) bool {
	if byLikes && a.LikeCount != b.LikeCount {
		return a.LikeCount > b.LikeCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Offset returns the index of the first post on a 0-based page. ok is
// false for a negative page and for a page whose offset overflows int; no
// post lives on such a page.
func Offset(page, size int) (offset int, ok bool) {
	if page < 0 || size <= 0 || page > (math.MaxInt-size)/size {
		return 0, false
	}
	return page * size, true
}

// Apply selects, orders and pages posts in memory. A page past the end
// yields an empty, non-nil slice.
func Apply(posts []models.Post, c Criteria, page, size int) []models.Post {
	out := []models.Post{}
	if c.SelectsNothing() || page < 0 || size <= 0 {
		return out
	}
	for i := range posts {
		if c.Matches(&posts[i]) {
			out = append(out, posts[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Less(&out[i], &out[j], c.ByLikes)
	})

	start, ok := Offset(page, size)
	if !ok || start >= len(out) {
		return []models.Post{}
	}
	end := min(start+size, len(out))
	return out[start:end]
}
