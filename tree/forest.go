// Package tree holds the hierarchical family model: assembling member rows
// into a forest, projecting it into a flat list, and laying it out.
package tree

import (
	"sort"

	"familytree/domain"
)

// Assemble turns flat member rows into a forest of roots with nested
// Children and Spouse. Children keep creation order. A member whose parent
// is not among the rows is promoted to a root. Members caught in a parent
// cycle are unreachable from any root and are left out.
func Assemble(members []domain.Member) []domain.Member {
	rows := make([]domain.Member, len(members))
	copy(rows, members)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	byID := make(map[string]*domain.Member, len(rows))
	for i := range rows {
		byID[rows[i].MemberID] = &rows[i]
	}

	childIDs := make(map[string][]string, len(rows))
	var rootIDs []string
	for i := range rows {
		m := &rows[i]
		if m.ParentID == nil || *m.ParentID == "" {
			rootIDs = append(rootIDs, m.MemberID)
			continue
		}
		if _, ok := byID[*m.ParentID]; !ok {
			rootIDs = append(rootIDs, m.MemberID)
			continue
		}
		childIDs[*m.ParentID] = append(childIDs[*m.ParentID], m.MemberID)
	}

	visited := make(map[string]bool, len(rows))
	var build func(id string) domain.Member
	build = func(id string) domain.Member {
		visited[id] = true
		node := *byID[id]
		node.Spouse = nil
		node.Children = []domain.Member{}
		for _, cid := range childIDs[id] {
			if visited[cid] {
				continue
			}
			// Only the first spouse row takes the slot; any later one is
			// kept as a child so it and its descendants stay visible.
			if node.Spouse == nil && isSpouseOf(byID[cid], &node) {
				visited[cid] = true
				spouse := *byID[cid]
				spouse.Children = []domain.Member{}
				node.Spouse = &spouse
				continue
			}
			node.Children = append(node.Children, build(cid))
		}
		// Children filed under the spouse belong to the couple.
		if node.Spouse != nil {
			for _, cid := range childIDs[node.Spouse.MemberID] {
				if !visited[cid] {
					node.Children = append(node.Children, build(cid))
				}
			}
		}
		return node
	}

	forest := make([]domain.Member, 0, len(rootIDs))
	for _, id := range rootIDs {
		forest = append(forest, build(id))
	}
	return forest
}

// isSpouseOf reports whether candidate hangs on partner as its spouse rather
// than as a child.
func isSpouseOf(candidate, partner *domain.Member) bool {
	if candidate.SpouseID != nil && *candidate.SpouseID == partner.MemberID {
		return true
	}
	return partner.SpouseID != nil && *partner.SpouseID == candidate.MemberID
}

// WouldCycle reports whether setting memberID's parent to parentID would make
// memberID its own ancestor.
func WouldCycle(members []domain.Member, memberID, parentID string) bool {
	if parentID == "" {
		return false
	}
	parentOf := make(map[string]string, len(members))
	for _, m := range members {
		if m.ParentID != nil {
			parentOf[m.MemberID] = *m.ParentID
		}
	}

	seen := make(map[string]bool)
	for cur := parentID; cur != ""; cur = parentOf[cur] {
		if cur == memberID {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}
