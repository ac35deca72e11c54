package tree

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"familytree/domain"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func row(id, name, relation string, parent *string, at int) domain.Member {
	return domain.Member{
		MemberID:  id,
		Name:      name,
		Relation:  relation,
		ParentID:  parent,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, at, 0, time.UTC),
	}
}

// ashaRows is Asha with husband Ravi and three children, plus a grandchild.
func ashaRows() []domain.Member {
	asha := row("asha", "Asha", "self", nil, 0)
	asha.Gender = domain.GenderFemale
	asha.SpouseID = strPtr("ravi")
	ravi := row("ravi", "Ravi", "husband", strPtr("asha"), 1)
	ravi.SpouseID = strPtr("asha")
	return []domain.Member{
		row("rhea", "Rhea", "daughter", strPtr("asha"), 5),
		asha,
		row("maya", "Maya", "daughter", strPtr("asha"), 2),
		ravi,
		row("dev", "Dev", "son", strPtr("asha"), 3),
		row("kiran", "Kiran", "son", strPtr("dev"), 6),
	}
}

func TestAssemble_SpouseIsNotAChild(t *testing.T) {
	forest := Assemble(ashaRows())
	require.Len(t, forest, 1)

	root := forest[0]
	require.Equal(t, "asha", root.MemberID)
	require.NotNil(t, root.Spouse)
	require.Equal(t, "ravi", root.Spouse.MemberID)

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Maya", "Dev", "Rhea"}, names)
	require.Len(t, root.Children[1].Children, 1)
	require.Equal(t, "Kiran", root.Children[1].Children[0].Name)
}

func TestAssemble_TreatsMissingParentAsRoot(t *testing.T) {
	forest := Assemble([]domain.Member{
		row("orphan", "Orphan", "son", strPtr("gone"), 0),
		row("root", "Root", "self", nil, 1),
	})
	require.Len(t, forest, 2)
	require.Equal(t, "orphan", forest[0].MemberID)
	require.Equal(t, "root", forest[1].MemberID)
}

func TestAssemble_SpouseChildrenBelongToCouple(t *testing.T) {
	rows := ashaRows()
	rows = append(rows, row("tara", "Tara", "daughter", strPtr("ravi"), 7))

	forest := Assemble(rows)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 4)
	require.Equal(t, "Tara", forest[0].Children[3].Name)
}

func TestAssemble_ExtraSpouseStaysVisible(t *testing.T) {
	ravi := row("ravi", "Ravi", "self", nil, 0)
	ravi.SpouseID = strPtr("leela")
	sita := row("sita", "Sita", "wife", strPtr("ravi"), 1)
	sita.SpouseID = strPtr("ravi")
	leela := row("leela", "Leela", "wife", strPtr("ravi"), 2)
	leela.SpouseID = strPtr("ravi")
	kabir := row("kabir", "Kabir", "son", strPtr("leela"), 3)

	forest := Assemble([]domain.Member{ravi, sita, leela, kabir})
	require.Len(t, forest, 1)
	require.Equal(t, "sita", forest[0].Spouse.MemberID)

	var ids []string
	for _, e := range Flatten(forest) {
		ids = append(ids, e.ID)
	}
	require.ElementsMatch(t, []string{"ravi", "leela", "kabir"}, ids)
}

func TestWouldCycle(t *testing.T) {
	rows := ashaRows()
	require.True(t, WouldCycle(rows, "asha", "kiran"))
	require.True(t, WouldCycle(rows, "dev", "dev"))
	require.False(t, WouldCycle(rows, "kiran", "maya"))
	require.False(t, WouldCycle(rows, "dev", ""))
}

func TestFlatten_DepthEqualsAncestorCount(t *testing.T) {
	rows := ashaRows()
	rows = append(rows, row("other", "Other", "self", nil, 8))
	entries := Flatten(Assemble(rows))

	parentOf := map[string]string{}
	for _, m := range rows {
		if m.ParentID != nil {
			parentOf[m.MemberID] = *m.ParentID
		}
	}
	for _, e := range entries {
		depth := 0
		for cur := parentOf[e.ID]; cur != ""; cur = parentOf[cur] {
			depth++
		}
		require.Equal(t, depth, e.Depth, "entry %s", e.ID)
	}

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{"asha", "maya", "dev", "kiran", "rhea", "other"}, ids)
}

func TestFlatten_Empty(t *testing.T) {
	require.Empty(t, Flatten(nil))
}

func TestEntry_Indented(t *testing.T) {
	e := Entry{ID: "x", Name: "Kiran", Relation: "son", Depth: 2}
	require.Equal(t, "    Kiran (son)", e.Indented())
}

func TestContextParent_RevalidateDropsMissingMember(t *testing.T) {
	var ctx ContextParent
	entries := Flatten(Assemble(ashaRows()))
	require.True(t, ctx.Select(entries, "dev"))
	require.Equal(t, "dev", ctx.ID())

	require.False(t, ctx.Revalidate(entries))
	require.Equal(t, "dev", ctx.ID())

	var withoutDev []domain.Member
	for _, m := range ashaRows() {
		if m.MemberID != "dev" && m.MemberID != "kiran" {
			withoutDev = append(withoutDev, m)
		}
	}
	require.True(t, ctx.Revalidate(Flatten(Assemble(withoutDev))))
	_, ok := ctx.Current()
	require.False(t, ok)
	require.Equal(t, "", ctx.ID())
}

func TestContextParent_RestoreRefreshesOnRevalidate(t *testing.T) {
	var ctx ContextParent
	ctx.Restore(Entry{ID: "dev", Name: "Old name"})
	require.Equal(t, "dev", ctx.ID())

	require.False(t, ctx.Revalidate(Flatten(Assemble(ashaRows()))))
	cur, ok := ctx.Current()
	require.True(t, ok)
	require.Equal(t, "Dev", cur.Name)
	require.Equal(t, 1, cur.Depth)

	ctx.Restore(Entry{})
	_, ok = ctx.Current()
	require.False(t, ok)
}

func TestContextParent_SelectUnknown(t *testing.T) {
	var ctx ContextParent
	require.False(t, ctx.Select(nil, "nobody"))
	_, ok := ctx.Current()
	require.False(t, ok)
}

func TestChildOffsets_SumToZero(t *testing.T) {
	for n := 1; n <= 9; n++ {
		sum := 0.0
		for _, o := range ChildOffsets(n, DefaultSpacing) {
			sum += o
		}
		require.InDelta(t, 0, sum, 1e-9, "n=%d", n)
	}
	require.Nil(t, ChildOffsets(0, DefaultSpacing))
}

func TestDistributionLine(t *testing.T) {
	require.Nil(t, DistributionLineFor(0, 1))
	require.Nil(t, DistributionLineFor(1, 1))

	line := DistributionLineFor(3, 12)
	require.NotNil(t, line)
	require.Equal(t, 24.0, line.Width)
	require.Equal(t, -12.0, line.Left)
}

func TestLayout_AshaScenario(t *testing.T) {
	forest := Assemble(ashaRows())
	l := NewLayouter(1, logrus.New())

	p := l.Layout(&forest[0])
	require.NotNil(t, p)
	require.Equal(t, "Ravi", p.Spouse.Name)
	require.Equal(t, []float64{-1, 0, 1}, p.Drops)
	require.NotNil(t, p.Line)
	require.Equal(t, 2.0, p.Line.Width)
	require.Equal(t, -1.0, p.Line.Left)

	require.Len(t, p.Children, 3)
	require.Equal(t, "Maya", p.Children[0].Member.Name)
	require.Equal(t, -1.0, p.Children[0].Offset)
	require.Equal(t, 0.0, p.Children[1].Offset)
	require.Equal(t, 1.0, p.Children[2].Offset)

	dev := p.Children[1]
	require.Nil(t, dev.Line)
	require.Equal(t, []float64{0}, dev.Drops)

	maya := p.Children[0]
	require.Nil(t, maya.Line)
	require.Empty(t, maya.Drops)
	require.Empty(t, maya.Children)
}

func TestLayout_SkipsNodesWithoutID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := NewLayouter(1, logger)

	root := domain.Member{
		MemberID: "root",
		Name:     "Root",
		Children: []domain.Member{
			{MemberID: "a", Name: "A"},
			{Name: "Broken"},
			{MemberID: "b", Name: "B"},
		},
	}
	p := l.Layout(&root)
	require.Len(t, p.Children, 2)
	require.Equal(t, []float64{-0.5, 0.5}, p.Drops)
	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	require.Nil(t, l.Layout(&domain.Member{Name: "NoID"}))
	require.Len(t, hook.AllEntries(), 2)
}

func TestRender(t *testing.T) {
	forest := Assemble(ashaRows())
	l := NewLayouter(1, logrus.New())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, l.LayoutForest(forest)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"Asha (self) ♥ Ravi (husband)",
		"├── Maya (daughter) [-1]",
		"├── Dev (son) [0]",
		"│   └── Kiran (son) [0]",
		"└── Rhea (daughter) [+1]",
	}, lines)
}

func TestPresets(t *testing.T) {
	var ctx ContextParent
	entries := Flatten(Assemble(ashaRows()))

	form := domain.MemberForm{ParentID: "maya", Gender: domain.GenderOther}
	PresetSon.Apply(&form, &ctx)
	require.Equal(t, "son", form.Relation)
	require.Equal(t, domain.GenderMale, form.Gender)
	require.Equal(t, "maya", form.ParentID, "no context parent keeps the current parent")

	require.True(t, ctx.Select(entries, "dev"))
	PresetDaughter.Apply(&form, &ctx)
	require.Equal(t, "dev", form.ParentID)
	require.Equal(t, domain.GenderFemale, form.Gender)

	PresetSelf.Apply(&form, &ctx)
	require.Equal(t, "", form.ParentID)
	require.Equal(t, "self", form.Relation)
}

func TestSpousePresetFor(t *testing.T) {
	male := &domain.Member{MemberID: "m", Gender: "Male"}
	p := SpousePresetFor(male)
	require.Equal(t, "wife", p.Relation)
	require.Equal(t, domain.GenderFemale, p.Gender)

	form := PrefillFor(male, p)
	require.Equal(t, "m", form.ParentID)

	other := &domain.Member{MemberID: "o", Gender: domain.GenderOther}
	require.Equal(t, "husband", SpousePresetFor(other).Relation)
}
