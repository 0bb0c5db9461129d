package comment

import (
	"sort"
	"strings"
)

// Comment is a stored snippet. Field names match the persisted JSON
// blob, so renaming a tag is a storage format change.
type Comment struct {
	// ID is a ULID that uniquely identifies this comment
	ID string `json:"id"`

	// Text is the snippet body inserted into pages
	Text string `json:"text"`

	// Shortcode is a short label used as the search key and menu title
	Shortcode string `json:"shortcode"`

	// Category groups comments for filtering
	Category string `json:"category"`

	// CreatedAt is the Unix timestamp in milliseconds, used as the sort tiebreaker
	CreatedAt int64 `json:"createdAt"`

	// UsedCount is incremented every time the comment is used
	UsedCount int `json:"usedCount"`
}

const (
	// FilterAll is the reserved category filter meaning "no filter".
	// It is never stored on a comment.
	FilterAll = "All"

	// DefaultCategory is assigned when a comment is added without one.
	DefaultCategory = "General"

	// ShortcodeMaxLen bounds auto-derived shortcodes.
	ShortcodeMaxLen = 30
)

// SeedCategories is the category set offered before any comments exist.
var SeedCategories = []string{FilterAll, "Praise", "Critics", "Grammar", "Structure", DefaultCategory}

// DeriveShortcode builds a label from the comment text: the first two
// words longer than three characters, joined by a space, truncated to
// ShortcodeMaxLen runes.
func DeriveShortcode(text string) string {
	picked := make([]string, 0, 2)
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) > 3 {
			picked = append(picked, w)
			if len(picked) == 2 {
				break
			}
		}
	}

	s := strings.Join(picked, " ")
	if r := []rune(s); len(r) > ShortcodeMaxLen {
		s = string(r[:ShortcodeMaxLen])
	}
	return s
}

// SortDefault orders comments in place: most used first, ties broken by
// newest creation time.
func SortDefault(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].UsedCount != comments[j].UsedCount {
			return comments[i].UsedCount > comments[j].UsedCount
		}
		return comments[i].CreatedAt > comments[j].CreatedAt
	})
}

// TopByUsage returns at most limit comments ordered by usedCount
// descending. Ties keep the relative order of the input (the scan order
// of the underlying blob), so repeated projections are stable.
func TopByUsage(comments []Comment, limit int) []Comment {
	ranked := make([]Comment, len(comments))
	copy(ranked, comments)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UsedCount > ranked[j].UsedCount
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Sample is a seed comment inserted into an empty store.
type Sample struct {
	Text      string
	Shortcode string
	Category  string
}

// Samples returns the seed set for first-run stores.
func Samples() []Sample {
	return []Sample{
		{
			Text:      "Excellent argumentation, supported by sources.",
			Shortcode: "argument",
			Category:  "Praise",
		},
		{
			Text:      "Pay attention to the structure of the work. The introduction and conclusion do not match.",
			Shortcode: "structure",
			Category:  "Structure",
		},
		{
			Text:      "There are several grammatical errors in the third paragraph.",
			Shortcode: "grammar",
			Category:  "Grammar",
		},
		{
			Text:      "Sources are outdated, it is recommended to use publications from the last 3-5 years.",
			Shortcode: "sources",
			Category:  "Critics",
		},
	}
}
