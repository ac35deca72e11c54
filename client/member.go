package client

import (
	"context"
	"strconv"
	"strings"

	"familytree/domain"
)

func memberFields(form *domain.MemberForm) [][2]string {
	return [][2]string{
		{"name", form.Name},
		{"relation", form.Relation},
		{"gender", form.Gender},
		{"dob", form.DOB},
		{"occupation", form.Occupation},
		{"parentId", form.ParentID},
		{"address_houseNo", form.Address.HouseNo},
		{"address_place", form.Address.Place},
		{"address_city", form.Address.City},
		{"address_state", form.Address.State},
		{"address_country", form.Address.Country},
	}
}

func prepareMemberForm(form *domain.MemberForm) error {
	form.Name = strings.TrimSpace(form.Name)
	if form.Gender == "" {
		form.Gender = domain.GenderOther
	}
	return validate(form)
}

func (c *Client) CreateMember(ctx context.Context, form *domain.MemberForm) (*domain.Member, error) {
	if err := prepareMemberForm(form); err != nil {
		return nil, err
	}
	a := multipartAgent(c.http.Post(c.url("/family")), memberFields(form), form.Photo)
	return send[*domain.Member](ctx, c, a, "Failed to create member")
}

func (c *Client) UpdateMember(ctx context.Context, memberID string, form *domain.MemberForm) (*domain.Member, error) {
	if err := prepareMemberForm(form); err != nil {
		return nil, err
	}
	a := multipartAgent(c.http.Put(c.url("/family/"+memberID)), memberFields(form), form.Photo)
	return send[*domain.Member](ctx, c, a, "Failed to update member")
}

func (c *Client) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	return send[*domain.Member](ctx, c, c.http.Get(c.url("/family/member/"+memberID)), "Failed to load member")
}

// GetForest fetches the nested tree of the signed-in account.
func (c *Client) GetForest(ctx context.Context) ([]domain.Member, error) {
	profile, ok := c.session.Profile()
	if !ok {
		c.nav.Redirect(LoginPath)
		return nil, ErrUnauthorized
	}
	forest, err := send[[]domain.Member](ctx, c, c.http.Get(c.url("/family/"+strconv.Itoa(profile.ID))), "Failed to load tree")
	if err != nil {
		return nil, err
	}
	if forest == nil {
		forest = []domain.Member{}
	}
	return forest, nil
}

type memberDeleteResult struct {
	DeletedMembers int64 `json:"deletedMembers"`
}

// DeleteMember removes a member and its subtree. The store cascades, so the
// caller should fetch the forest again afterwards.
func (c *Client) DeleteMember(ctx context.Context, memberID string) (int64, error) {
	res, err := send[memberDeleteResult](ctx, c, c.http.Delete(c.url("/family/"+memberID)), "Failed to delete member")
	if err != nil {
		return 0, err
	}
	return res.DeletedMembers, nil
}
