package tree

import (
	"strings"

	"familytree/domain"
)

// Entry is one line of the parent picker.
type Entry struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Depth    int    `json:"depth"`
}

// Flatten walks the forest depth-first. Roots have depth 0 and every level
// below adds one. The result is rebuilt from the forest on every call.
func Flatten(forest []domain.Member) []Entry {
	var list []Entry
	var walk func(nodes []domain.Member, depth int)
	walk = func(nodes []domain.Member, depth int) {
		for _, n := range nodes {
			list = append(list, Entry{ID: n.MemberID, Name: n.Name, Relation: n.Relation, Depth: depth})
			if len(n.Children) > 0 {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(forest, 0)
	return list
}

// Find looks an entry up by id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Indented renders an entry for a select list, two spaces per level.
func (e Entry) Indented() string {
	label := strings.Repeat("  ", e.Depth) + e.Name
	if e.Relation != "" {
		label += " (" + e.Relation + ")"
	}
	return label
}
