package domain

import (
	"context"
	"mime/multipart"
	"strings"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type Address struct {
	HouseNo string `gorm:"type:varchar(50)" json:"houseNo,omitempty"`
	Place   string `gorm:"type:varchar(150)" json:"place,omitempty"`
	City    string `gorm:"type:varchar(100)" json:"city,omitempty"`
	State   string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// String joins the non-empty address parts with ", ".
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.HouseNo, a.Place, a.City, a.State, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Member is a person in the hierarchical family tree. Spouse and Children are
// not columns: they are filled in when the forest is assembled.
type Member struct {
	MemberID   string     `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	UserID     int        `gorm:"not null;index" json:"userId"`
	Name       string     `gorm:"type:varchar(150);not null" json:"name" valid:"required~Name is required"`
	Relation   string     `gorm:"type:varchar(50)" json:"relation"`
	Gender     string     `gorm:"type:varchar(10);not null;default:other" json:"gender" valid:"in(male|female|other)~Invalid gender"`
	DOB        *time.Time `gorm:"type:date" json:"dob,omitempty"`
	Occupation *string    `gorm:"type:varchar(150)" json:"occupation,omitempty"`
	Address    Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Photo      *string    `gorm:"type:varchar(255)" json:"photo,omitempty"`
	ParentID   *string    `gorm:"type:varchar(36);index" json:"parentId,omitempty"`
	SpouseID   *string    `gorm:"type:varchar(36)" json:"spouseId,omitempty"`
	Spouse     *Member    `gorm:"-" json:"spouse,omitempty"`
	Children   []Member   `gorm:"-" json:"children"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSpouseRelation reports whether a relation label links a member to its
// parent reference as a partner rather than as a child.
func IsSpouseRelation(relation string) bool {
	switch strings.ToLower(strings.TrimSpace(relation)) {
	case "wife", "husband", "spouse", "partner":
		return true
	}
	return false
}

// MemberForm carries the multipart fields of a create or update request.
type MemberForm struct {
	Name       string     `json:"name" valid:"required~Name is required"`
	Relation   string     `json:"relation"`
	Gender     string     `json:"gender" valid:"in(male|female|other)~Invalid gender"`
	DOB        string     `json:"dob"`
	Occupation string     `json:"occupation"`
	Address    Address    `json:"address"`
	ParentID   string     `json:"parentId"`
	Photo      *PhotoFile `json:"-" valid:"-"`
}

// PhotoFile is an image attached to a form on the client side.
type PhotoFile struct {
	Name    string
	Content []byte
}

type MemberRepo interface {
	CreateMember(ctx context.Context, member *Member) error
	UpdateMember(ctx context.Context, member *Member) error
	GetMemberByID(ctx context.Context, userID int, memberID string) (*Member, error)
	GetMembersByUser(ctx context.Context, userID int) ([]Member, error)
	LinkSpouse(ctx context.Context, userID int, memberID, spouseID string) error
	DeleteMemberSubtree(ctx context.Context, userID int, memberID string) (int64, error)
}

type MemberUseCase interface {
	CreateMember(ctx context.Context, userID int, form *MemberForm, photo *multipart.FileHeader) (*Member, error)
	UpdateMember(ctx context.Context, userID int, memberID string, form *MemberForm, photo *multipart.FileHeader) (*Member, error)
	GetMemberByID(ctx context.Context, userID int, memberID string) (*Member, error)
	GetFamilyForest(ctx context.Context, userID int) ([]Member, error)
	DeleteMember(ctx context.Context, userID int, memberID string) (int64, error)
}
