package tree

import (
	"fmt"
	"io"
	"strconv"

	"familytree/domain"
)

// Render writes placements as an indented text tree. Couples share a line
// joined by a heart; each child line carries its offset from the couple.
func Render(w io.Writer, placements []*Placement) error {
	for _, p := range placements {
		if _, err := fmt.Fprintln(w, coupleLabel(p)); err != nil {
			return err
		}
		if err := renderChildren(w, p, ""); err != nil {
			return err
		}
	}
	return nil
}

func renderChildren(w io.Writer, p *Placement, prefix string) error {
	for i, child := range p.Children {
		branch, next := "├── ", "│   "
		if i == len(p.Children)-1 {
			branch, next = "└── ", "    "
		}
		line := fmt.Sprintf("%s%s%s [%s]", prefix, branch, coupleLabel(child), formatOffset(child.Offset))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if err := renderChildren(w, child, prefix+next); err != nil {
			return err
		}
	}
	return nil
}

func coupleLabel(p *Placement) string {
	label := memberLabel(p.Member)
	if p.Spouse != nil {
		label += " ♥ " + memberLabel(p.Spouse)
	}
	return label
}

func memberLabel(m *domain.Member) string {
	if m.Relation == "" {
		return m.Name
	}
	return m.Name + " (" + m.Relation + ")"
}

func formatOffset(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}
