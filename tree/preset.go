package tree

import (
	"strings"

	"familytree/domain"
)

// Preset is a quick-add shortcut on the member form.
type Preset struct {
	Relation          string
	Gender            string
	ParentFromContext bool
	ClearParent       bool
}

var (
	PresetSelf     = Preset{Relation: "self", Gender: domain.GenderMale, ClearParent: true}
	PresetWife     = Preset{Relation: "wife", Gender: domain.GenderFemale, ParentFromContext: true}
	PresetHusband  = Preset{Relation: "husband", Gender: domain.GenderMale, ParentFromContext: true}
	PresetSon      = Preset{Relation: "son", Gender: domain.GenderMale, ParentFromContext: true}
	PresetDaughter = Preset{Relation: "daughter", Gender: domain.GenderFemale, ParentFromContext: true}
)

// Presets maps the quick-add names to their presets.
var Presets = map[string]Preset{
	"self":     PresetSelf,
	"wife":     PresetWife,
	"husband":  PresetHusband,
	"son":      PresetSon,
	"daughter": PresetDaughter,
}

// Apply fills relation, gender and parent on form. The parent comes from the
// context parent only when one is selected; otherwise it is left as is.
func (p Preset) Apply(form *domain.MemberForm, ctx *ContextParent) {
	form.Relation = p.Relation
	if p.Gender != "" {
		form.Gender = p.Gender
	}
	switch {
	case p.ClearParent:
		form.ParentID = ""
	case p.ParentFromContext && ctx != nil && ctx.ID() != "":
		form.ParentID = ctx.ID()
	}
}

// SpousePresetFor picks the relation and gender offered by "Add spouse" for a
// member: a wife for a male member, a husband for anyone else.
func SpousePresetFor(m *domain.Member) Preset {
	if strings.ToLower(m.Gender) == domain.GenderMale {
		return Preset{Relation: "wife", Gender: domain.GenderFemale}
	}
	return Preset{Relation: "husband", Gender: domain.GenderMale}
}

// PrefillFor builds the form opened from a member's detail view (add
// spouse, son or daughter): the parent is always that member.
func PrefillFor(m *domain.Member, p Preset) domain.MemberForm {
	return domain.MemberForm{Relation: p.Relation, Gender: p.Gender, ParentID: m.MemberID}
}
