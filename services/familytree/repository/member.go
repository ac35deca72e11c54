package repository

import (
	"context"
	"errors"
	"fmt"

	"familytree/domain"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(database *gorm.DB) domain.MemberRepo {
	return &memberRepository{
		db: database,
	}
}

func (mr *memberRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	if err := mr.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (mr *memberRepository) UpdateMember(ctx context.Context, member *domain.Member) error {
	err := mr.db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("member_id = ? AND user_id = ?", member.MemberID, member.UserID).
		Select("name", "relation", "gender", "dob", "occupation",
			"address_house_no", "address_place", "address_city", "address_state", "address_country",
			"photo", "parent_id").
		Updates(member).Error
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

func (mr *memberRepository) GetMemberByID(ctx context.Context, userID int, memberID string) (*domain.Member, error) {
	var member domain.Member
	err := mr.db.WithContext(ctx).
		Where("member_id = ? AND user_id = ?", memberID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching member: %w", err)
	}
	member.Children = []domain.Member{}
	return &member, nil
}

func (mr *memberRepository) GetMembersByUser(ctx context.Context, userID int) ([]domain.Member, error) {
	var members []domain.Member
	err := mr.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve members: %w", err)
	}
	return members, nil
}

// LinkSpouse points memberID's spouse reference at spouseID.
func (mr *memberRepository) LinkSpouse(ctx context.Context, userID int, memberID, spouseID string) error {
	err := mr.db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("member_id = ? AND user_id = ?", memberID, userID).
		Update("spouse_id", spouseID).Error
	if err != nil {
		return fmt.Errorf("failed to link spouse: %w", err)
	}
	return nil
}

// DeleteMemberSubtree removes a member with every descendant and clears
// spouse references that pointed into the removed set.
func (mr *memberRepository) DeleteMemberSubtree(ctx context.Context, userID int, memberID string) (int64, error) {
	var deleted int64

	err := mr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root domain.Member
		if err := tx.Where("member_id = ? AND user_id = ?", memberID, userID).First(&root).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("error fetching member: %w", err)
		}

		ids := []string{root.MemberID}
		seen := map[string]bool{root.MemberID: true}
		frontier := []string{root.MemberID}
		for len(frontier) > 0 {
			var next []string
			if err := tx.Model(&domain.Member{}).
				Where("user_id = ? AND parent_id IN ?", userID, frontier).
				Pluck("member_id", &next).Error; err != nil {
				return fmt.Errorf("failed to collect descendants: %w", err)
			}
			frontier = frontier[:0]
			for _, id := range next {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
					frontier = append(frontier, id)
				}
			}
		}

		if err := tx.Model(&domain.Member{}).
			Where("user_id = ? AND spouse_id IN ?", userID, ids).
			Update("spouse_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unlink spouses: %w", err)
		}

		res := tx.Where("user_id = ? AND member_id IN ?", userID, ids).Delete(&domain.Member{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete members: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
