package usecase

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"familytree/domain"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

type familyGraphUseCase struct {
	repo    domain.FamilyGraphRepo
	photos  domain.PhotoRepo
	TimeOut time.Duration
}

func NewFamilyGraphUseCase(repo domain.FamilyGraphRepo, photos domain.PhotoRepo, to time.Duration) domain.FamilyGraphUseCase {
	return &familyGraphUseCase{
		repo:    repo,
		photos:  photos,
		TimeOut: to,
	}
}

func validateNodeForm(form *domain.NodeForm) error {
	form.Name = strings.TrimSpace(form.Name)
	if form.Gender == "" {
		form.Gender = domain.GenderOther
	}
	form.Gender = strings.ToLower(form.Gender)

	if _, err := govalidator.ValidateStruct(form); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func (guc *familyGraphUseCase) GetGraph(ctx context.Context, userID int) (*domain.FamilyGraph, error) {
	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	v, err := guc.repo.GetGraph(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (guc *familyGraphUseCase) CreateNode(ctx context.Context, userID int, form *domain.NodeForm, photo *multipart.FileHeader) (*domain.TreeNode, error) {
	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	if err := validateNodeForm(form); err != nil {
		return nil, err
	}

	node := domain.TreeNode{
		ID:     strings.TrimSpace(form.NodeID),
		UserID: userID,
		Type:   domain.NodeTypeFamilyMember,
		Data:   form.NodeData(),
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}

	if form.Position != nil {
		node.Position = *form.Position
	} else {
		graph, err := guc.repo.GetGraph(ctx, userID)
		if err != nil {
			return nil, err
		}
		node.Position = domain.TopRowSlot(len(graph.Nodes))
	}

	if photo != nil {
		ref, err := guc.photos.SavePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		node.Data.Photo = ref
	}

	if err := guc.repo.CreateNode(ctx, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (guc *familyGraphUseCase) UpdateNode(ctx context.Context, userID int, nodeID string, form *domain.NodeForm, photo *multipart.FileHeader) (*domain.TreeNode, error) {
	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	if err := validateNodeForm(form); err != nil {
		return nil, err
	}

	node, err := guc.repo.GetNode(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	data := form.NodeData()
	data.Photo = node.Data.Photo
	if photo != nil {
		ref, err := guc.photos.SavePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		data.Photo = ref
	}
	node.Data = data

	if err := guc.repo.UpdateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// SaveGraph stores a full snapshot. Edge labels and styles are re-derived
// from their tags, and edges must join nodes of the same snapshot.
func (guc *familyGraphUseCase) SaveGraph(ctx context.Context, userID int, graph *domain.FamilyGraph) error {
	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	ids := make(map[string]bool, len(graph.Nodes))
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", domain.ErrValidation)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate node id %s", domain.ErrValidation, n.ID)
		}
		ids[n.ID] = true
		if n.Type == "" {
			n.Type = domain.NodeTypeFamilyMember
		}
	}

	edgeIDs := make(map[string]bool, len(graph.Edges))
	for i := range graph.Edges {
		e := &graph.Edges[i]
		if !ids[e.Source] || !ids[e.Target] {
			return fmt.Errorf("%w: edge %s references an unknown node", domain.ErrValidation, e.ID)
		}
		if e.ID == "" || edgeIDs[e.ID] {
			e.ID = fmt.Sprintf("%s-%s-%s", e.Source, e.Target, uuid.NewString())
		}
		edgeIDs[e.ID] = true
		e.Normalize()
	}

	return guc.repo.SaveGraph(ctx, userID, graph)
}

func (guc *familyGraphUseCase) DeleteNode(ctx context.Context, userID int, nodeID string) (*domain.DeleteSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	v, err := guc.repo.DeleteNode(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (guc *familyGraphUseCase) ClearAll(ctx context.Context, userID int, confirm string) (*domain.DeleteSummary, error) {
	if confirm != domain.ClearAllPhrase {
		return nil, domain.ErrInvalidPhrase
	}

	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	return guc.repo.ClearAll(ctx, userID)
}

func (guc *familyGraphUseCase) WipeAll(ctx context.Context, confirm string) (*domain.DeleteSummary, error) {
	if confirm != domain.WipeAllPhrase {
		return nil, domain.ErrInvalidPhrase
	}

	ctx, cancel := context.WithTimeout(ctx, guc.TimeOut)
	defer cancel()

	return guc.repo.WipeAll(ctx)
}
