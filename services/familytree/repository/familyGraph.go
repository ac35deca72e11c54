package repository

import (
	"context"
	"errors"
	"fmt"

	"familytree/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// isDuplicateKey reports whether err is a primary or unique key conflict,
// whether or not gorm was opened with TranslateError.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type familyGraphRepository struct {
	db *gorm.DB
}

func NewFamilyGraphRepository(database *gorm.DB) domain.FamilyGraphRepo {
	return &familyGraphRepository{
		db: database,
	}
}

func (gr *familyGraphRepository) GetGraph(ctx context.Context, userID int) (*domain.FamilyGraph, error) {
	graph := domain.FamilyGraph{
		Nodes: []domain.TreeNode{},
		Edges: []domain.TreeEdge{},
	}

	if err := gr.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&graph.Nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve nodes: %w", err)
	}

	if err := gr.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&graph.Edges).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve edges: %w", err)
	}

	return &graph, nil
}

func (gr *familyGraphRepository) GetNode(ctx context.Context, userID int, nodeID string) (*domain.TreeNode, error) {
	var node domain.TreeNode
	err := gr.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", nodeID, userID).
		First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching node: %w", err)
	}
	return &node, nil
}

func (gr *familyGraphRepository) CreateNode(ctx context.Context, node *domain.TreeNode) error {
	if err := gr.db.WithContext(ctx).Create(node).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: node id %s is already taken", domain.ErrValidation, node.ID)
		}
		return fmt.Errorf("failed to create node: %w", err)
	}
	return nil
}

func (gr *familyGraphRepository) UpdateNode(ctx context.Context, node *domain.TreeNode) error {
	err := gr.db.WithContext(ctx).
		Model(&domain.TreeNode{}).
		Where("id = ? AND user_id = ?", node.ID, node.UserID).
		Select("data_name", "data_date_of_birth", "data_date_of_death", "data_gender",
			"data_occupation", "data_location", "data_notes", "data_photo").
		Updates(node).Error
	if err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	return nil
}

// SaveGraph replaces the user's whole graph with the snapshot.
func (gr *familyGraphRepository) SaveGraph(ctx context.Context, userID int, graph *domain.FamilyGraph) error {
	return gr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.TreeEdge{}).Error; err != nil {
			return fmt.Errorf("failed to clear edges: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.TreeNode{}).Error; err != nil {
			return fmt.Errorf("failed to clear nodes: %w", err)
		}

		for i := range graph.Nodes {
			graph.Nodes[i].UserID = userID
		}
		for i := range graph.Edges {
			graph.Edges[i].UserID = userID
		}

		if len(graph.Nodes) > 0 {
			if err := tx.Create(&graph.Nodes).Error; err != nil {
				if isDuplicateKey(err) {
					return fmt.Errorf("%w: a node id is already taken", domain.ErrValidation)
				}
				return fmt.Errorf("failed to save nodes: %w", err)
			}
		}
		if len(graph.Edges) > 0 {
			if err := tx.Create(&graph.Edges).Error; err != nil {
				if isDuplicateKey(err) {
					return fmt.Errorf("%w: a connection id is already taken", domain.ErrValidation)
				}
				return fmt.Errorf("failed to save edges: %w", err)
			}
		}
		return nil
	})
}

// DeleteNode removes a node and every edge that starts or ends at it.
func (gr *familyGraphRepository) DeleteNode(ctx context.Context, userID int, nodeID string) (*domain.DeleteSummary, error) {
	var summary domain.DeleteSummary

	err := gr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := tx.Where("user_id = ? AND (source = ? OR target = ?)", userID, nodeID, nodeID).
			Delete(&domain.TreeEdge{})
		if edges.Error != nil {
			return fmt.Errorf("failed to delete connections: %w", edges.Error)
		}

		nodes := tx.Where("id = ? AND user_id = ?", nodeID, userID).Delete(&domain.TreeNode{})
		if nodes.Error != nil {
			return fmt.Errorf("failed to delete node: %w", nodes.Error)
		}
		if nodes.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		summary.DeletedNodes = nodes.RowsAffected
		summary.DeletedConnections = edges.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

func (gr *familyGraphRepository) ClearAll(ctx context.Context, userID int) (*domain.DeleteSummary, error) {
	var summary domain.DeleteSummary

	err := gr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := tx.Where("user_id = ?", userID).Delete(&domain.TreeEdge{})
		if edges.Error != nil {
			return fmt.Errorf("failed to clear connections: %w", edges.Error)
		}
		nodes := tx.Where("user_id = ?", userID).Delete(&domain.TreeNode{})
		if nodes.Error != nil {
			return fmt.Errorf("failed to clear nodes: %w", nodes.Error)
		}
		summary.DeletedNodes = nodes.RowsAffected
		summary.DeletedConnections = edges.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// WipeAll deletes every node and edge regardless of owner.
func (gr *familyGraphRepository) WipeAll(ctx context.Context) (*domain.DeleteSummary, error) {
	var summary domain.DeleteSummary

	err := gr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edges := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.TreeEdge{})
		if edges.Error != nil {
			return fmt.Errorf("failed to wipe connections: %w", edges.Error)
		}
		nodes := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.TreeNode{})
		if nodes.Error != nil {
			return fmt.Errorf("failed to wipe nodes: %w", nodes.Error)
		}
		summary.DeletedNodes = nodes.RowsAffected
		summary.DeletedConnections = edges.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &summary, nil
}
