package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"familytree/domain"
	"familytree/tree"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

type memberUseCase struct {
	repo    domain.MemberRepo
	photos  domain.PhotoRepo
	TimeOut time.Duration
}

func NewMemberUseCase(repo domain.MemberRepo, photos domain.PhotoRepo, to time.Duration) domain.MemberUseCase {
	return &memberUseCase{
		repo:    repo,
		photos:  photos,
		TimeOut: to,
	}
}

func validateMemberForm(form *domain.MemberForm) (*time.Time, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.ParentID = strings.TrimSpace(form.ParentID)
	if form.Gender == "" {
		form.Gender = domain.GenderOther
	}
	form.Gender = strings.ToLower(form.Gender)

	if _, err := govalidator.ValidateStruct(form); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if form.DOB == "" {
		return nil, nil
	}
	dob, err := time.Parse("2006-01-02", form.DOB)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date of birth %q", domain.ErrValidation, form.DOB)
	}
	return &dob, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (muc *memberUseCase) CreateMember(ctx context.Context, userID int, form *domain.MemberForm, photo *multipart.FileHeader) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, muc.TimeOut)
	defer cancel()

	dob, err := validateMemberForm(form)
	if err != nil {
		return nil, err
	}

	var parent *domain.Member
	if form.ParentID != "" {
		parent, err = muc.repo.GetMemberByID(ctx, userID, form.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent %s does not exist", domain.ErrValidation, form.ParentID)
			}
			return nil, err
		}
		if domain.IsSpouseRelation(form.Relation) && parent.SpouseID != nil {
			return nil, fmt.Errorf("%w: %s already has a spouse", domain.ErrValidation, parent.Name)
		}
	}

	member := domain.Member{
		MemberID:   uuid.NewString(),
		UserID:     userID,
		Name:       form.Name,
		Relation:   strings.TrimSpace(form.Relation),
		Gender:     form.Gender,
		DOB:        dob,
		Occupation: optional(form.Occupation),
		Address:    form.Address,
		Children:   []domain.Member{},
	}
	if parent != nil {
		member.ParentID = &parent.MemberID
	}

	if photo != nil {
		ref, err := muc.photos.SavePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		member.Photo = &ref
	}

	if err := muc.repo.CreateMember(ctx, &member); err != nil {
		return nil, err
	}

	if parent != nil && domain.IsSpouseRelation(member.Relation) {
		if err := muc.repo.LinkSpouse(ctx, userID, member.MemberID, parent.MemberID); err != nil {
			return nil, err
		}
		if err := muc.repo.LinkSpouse(ctx, userID, parent.MemberID, member.MemberID); err != nil {
			return nil, err
		}
		member.SpouseID = &parent.MemberID
	}

	return &member, nil
}

func (muc *memberUseCase) UpdateMember(ctx context.Context, userID int, memberID string, form *domain.MemberForm, photo *multipart.FileHeader) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, muc.TimeOut)
	defer cancel()

	dob, err := validateMemberForm(form)
	if err != nil {
		return nil, err
	}

	existing, err := muc.repo.GetMemberByID(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	if form.ParentID != "" {
		if form.ParentID == memberID {
			return nil, domain.ErrAncestorCycle
		}
		all, err := muc.repo.GetMembersByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !containsMember(all, form.ParentID) {
			return nil, fmt.Errorf("%w: parent %s does not exist", domain.ErrValidation, form.ParentID)
		}
		if tree.WouldCycle(all, memberID, form.ParentID) {
			return nil, domain.ErrAncestorCycle
		}
		existing.ParentID = &form.ParentID
	} else {
		existing.ParentID = nil
	}

	existing.Name = form.Name
	existing.Relation = strings.TrimSpace(form.Relation)
	existing.Gender = form.Gender
	existing.DOB = dob
	existing.Occupation = optional(form.Occupation)
	existing.Address = form.Address

	if photo != nil {
		ref, err := muc.photos.SavePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		existing.Photo = &ref
	}

	if err := muc.repo.UpdateMember(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func containsMember(members []domain.Member, id string) bool {
	for _, m := range members {
		if m.MemberID == id {
			return true
		}
	}
	return false
}

func (muc *memberUseCase) GetMemberByID(ctx context.Context, userID int, memberID string) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, muc.TimeOut)
	defer cancel()

	v, err := muc.repo.GetMemberByID(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (muc *memberUseCase) GetFamilyForest(ctx context.Context, userID int) ([]domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, muc.TimeOut)
	defer cancel()

	members, err := muc.repo.GetMembersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tree.Assemble(members), nil
}

func (muc *memberUseCase) DeleteMember(ctx context.Context, userID int, memberID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, muc.TimeOut)
	defer cancel()

	n, err := muc.repo.DeleteMemberSubtree(ctx, userID, memberID)
	if err != nil {
		return 0, err
	}
	return n, nil
}
