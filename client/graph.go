package client

import (
	"context"
	"strings"

	"familytree/domain"
)

func nodeFields(form *domain.NodeForm) [][2]string {
	fields := [][2]string{
		{"nodeId", form.NodeID},
		{"name", form.Name},
		{"dateOfBirth", form.DateOfBirth},
		{"dateOfDeath", form.DateOfDeath},
		{"gender", form.Gender},
		{"occupation", form.Occupation},
		{"location", form.Location},
		{"notes", form.Notes},
	}
	if form.Position != nil {
		fields = append(fields,
			[2]string{"positionX", formatFloat(form.Position.X)},
			[2]string{"positionY", formatFloat(form.Position.Y)},
		)
	}
	return fields
}

func prepareNodeForm(form *domain.NodeForm) error {
	form.Name = strings.TrimSpace(form.Name)
	if form.Gender == "" {
		form.Gender = domain.GenderOther
	}
	return validate(form)
}

func (c *Client) GetGraph(ctx context.Context) (*domain.FamilyGraph, error) {
	graph, err := send[*domain.FamilyGraph](ctx, c, c.http.Get(c.url("/family-tree")), "Failed to load family tree")
	if err != nil {
		return nil, err
	}
	if graph == nil {
		graph = &domain.FamilyGraph{}
	}
	if graph.Nodes == nil {
		graph.Nodes = []domain.TreeNode{}
	}
	if graph.Edges == nil {
		graph.Edges = []domain.TreeEdge{}
	}
	return graph, nil
}

func (c *Client) CreateNode(ctx context.Context, form *domain.NodeForm) (*domain.TreeNode, error) {
	if err := prepareNodeForm(form); err != nil {
		return nil, err
	}
	a := multipartAgent(c.http.Post(c.url("/family-tree/node")), nodeFields(form), form.Photo)
	return send[*domain.TreeNode](ctx, c, a, "Failed to add family member")
}

func (c *Client) UpdateNode(ctx context.Context, nodeID string, form *domain.NodeForm) (*domain.TreeNode, error) {
	if err := prepareNodeForm(form); err != nil {
		return nil, err
	}
	a := multipartAgent(c.http.Put(c.url("/family-tree/node/"+nodeID)), nodeFields(form), form.Photo)
	return send[*domain.TreeNode](ctx, c, a, "Failed to update family member")
}

func (c *Client) SaveGraph(ctx context.Context, graph *domain.FamilyGraph) error {
	a := c.http.Put(c.url("/family-tree/save")).JSON(graph)
	_, err := send[*domain.FamilyGraph](ctx, c, a, "Failed to save family tree")
	return err
}

func (c *Client) DeleteNode(ctx context.Context, nodeID string) (*domain.DeleteSummary, error) {
	return send[*domain.DeleteSummary](ctx, c, c.http.Delete(c.url("/family-tree/node/"+nodeID)), "Failed to delete family member")
}

// ClearAll removes every node and edge of the account. The phrase is passed
// through as typed; the store refuses anything but domain.ClearAllPhrase.
func (c *Client) ClearAll(ctx context.Context, phrase string) (*domain.DeleteSummary, error) {
	a := c.http.Delete(c.url("/family-tree/clear-all")).JSON(domain.ConfirmRequest{Confirm: phrase})
	return send[*domain.DeleteSummary](ctx, c, a, "Failed to clear family tree")
}

// WipeAll removes every node and edge of every account.
func (c *Client) WipeAll(ctx context.Context, phrase string) (*domain.DeleteSummary, error) {
	a := c.http.Post(c.url("/family-tree/nuclear-delete")).JSON(domain.ConfirmRequest{Confirm: phrase})
	return send[*domain.DeleteSummary](ctx, c, a, "Failed to wipe family tree data")
}
