package tree

import (
	"familytree/domain"

	"github.com/sirupsen/logrus"
)

// DefaultSpacing is the horizontal distance between sibling subtrees.
const DefaultSpacing = 12.0

// ChildOffsets returns the horizontal offset of each of n children relative
// to the midpoint of the parent couple, in units of spacing. The offsets
// always sum to zero.
func ChildOffsets(n int, spacing float64) []float64 {
	if n <= 0 {
		return nil
	}
	offsets := make([]float64, n)
	center := float64(n-1) / 2
	for i := range offsets {
		offsets[i] = (float64(i) - center) * spacing
	}
	return offsets
}

// DistributionLine is the horizontal bar the child drops hang from, centered
// under the couple.
type DistributionLine struct {
	Left  float64
	Width float64
}

// DistributionLineFor returns nil for fewer than two children: none draws no
// line and a single child gets a straight drop.
func DistributionLineFor(n int, spacing float64) *DistributionLine {
	if n < 2 {
		return nil
	}
	width := float64(n-1) * spacing
	return &DistributionLine{Left: -width / 2, Width: width}
}

// Placement is the laid-out form of one couple row and its descendants.
// Offsets are relative to the midpoint of the parent couple.
type Placement struct {
	Member   *domain.Member
	Spouse   *domain.Member
	Offset   float64
	Line     *DistributionLine
	Drops    []float64
	Children []*Placement
}

type Layouter struct {
	Spacing float64
	Log     logrus.FieldLogger
}

func NewLayouter(spacing float64, log logrus.FieldLogger) *Layouter {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Layouter{Spacing: spacing, Log: log}
}

// Layout places root and its descendants. It returns nil when root has no
// identifier; invalid children are skipped the same way.
func (l *Layouter) Layout(root *domain.Member) *Placement {
	return l.layout(root, 0)
}

// LayoutForest lays out every valid root of the forest.
func (l *Layouter) LayoutForest(forest []domain.Member) []*Placement {
	out := make([]*Placement, 0, len(forest))
	for i := range forest {
		if p := l.Layout(&forest[i]); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (l *Layouter) layout(m *domain.Member, offset float64) *Placement {
	if m == nil || m.MemberID == "" {
		l.Log.WithField("member", memberName(m)).Warn("skipping tree node without an id")
		return nil
	}

	p := &Placement{Member: m, Offset: offset}
	if m.Spouse != nil && m.Spouse.MemberID != "" {
		p.Spouse = m.Spouse
	}

	valid := make([]*domain.Member, 0, len(m.Children))
	for i := range m.Children {
		child := &m.Children[i]
		if child.MemberID == "" {
			l.Log.WithField("member", child.Name).Warn("skipping tree node without an id")
			continue
		}
		valid = append(valid, child)
	}

	p.Drops = ChildOffsets(len(valid), l.Spacing)
	p.Line = DistributionLineFor(len(valid), l.Spacing)
	for i, child := range valid {
		p.Children = append(p.Children, l.layout(child, p.Drops[i]))
	}
	return p
}

func memberName(m *domain.Member) string {
	if m == nil {
		return ""
	}
	return m.Name
}
