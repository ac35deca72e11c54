package domain

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"
)

type RelationshipType string

const (
	RelationSpouse                RelationshipType = "spouse"
	RelationParentChild           RelationshipType = "parent-child"
	RelationSibling               RelationshipType = "sibling"
	RelationGrandparentGrandchild RelationshipType = "grandparent-grandchild"
	RelationOther                 RelationshipType = "other"
)

// RelationshipTypes lists the choices offered when two nodes are connected,
// in menu order.
var RelationshipTypes = []RelationshipType{
	RelationSpouse,
	RelationParentChild,
	RelationSibling,
	RelationGrandparentGrandchild,
	RelationOther,
}

// ParseRelationshipType accepts a tag name or its 1-based menu number.
// Anything else, including an empty (cancelled) answer, is RelationOther.
func ParseRelationshipType(s string) RelationshipType {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, rt := range RelationshipTypes {
		if s == string(rt) || s == string(rune('1'+i)) {
			return rt
		}
	}
	return RelationOther
}

func (rt RelationshipType) Valid() bool {
	for _, v := range RelationshipTypes {
		if rt == v {
			return true
		}
	}
	return false
}

// Label is the text drawn on an edge, e.g. "parent → child".
func (rt RelationshipType) Label() string {
	return strings.Replace(string(rt), "-", " → ", 1)
}

type EdgeStyle struct {
	Stroke          string `gorm:"type:varchar(16)" json:"stroke"`
	StrokeWidth     int    `json:"strokeWidth"`
	StrokeDasharray string `gorm:"type:varchar(16)" json:"strokeDasharray"`
}

// Style returns the fixed color and dash pattern of a relationship tag.
// Unknown tags get the neutral gray of RelationOther.
func (rt RelationshipType) Style() EdgeStyle {
	switch rt {
	case RelationSpouse:
		return EdgeStyle{Stroke: "#ef4444", StrokeWidth: 3, StrokeDasharray: "0"}
	case RelationParentChild:
		return EdgeStyle{Stroke: "#3b82f6", StrokeWidth: 3, StrokeDasharray: "0"}
	case RelationSibling:
		return EdgeStyle{Stroke: "#10b981", StrokeWidth: 3, StrokeDasharray: "8,4"}
	case RelationGrandparentGrandchild:
		return EdgeStyle{Stroke: "#8b5cf6", StrokeWidth: 3, StrokeDasharray: "2,2"}
	default:
		return EdgeStyle{Stroke: "#6b7280", StrokeWidth: 3, StrokeDasharray: "0"}
	}
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TopRowSlot is where the n-th new node is placed: side by side along the
// top of the canvas, 250 apart.
func TopRowSlot(n int) Position {
	return Position{X: float64(n)*250 + 100, Y: 50}
}

type NodeData struct {
	Name        string `gorm:"type:varchar(150);not null" json:"name"`
	DateOfBirth string `gorm:"type:varchar(20)" json:"dateOfBirth,omitempty"`
	DateOfDeath string `gorm:"type:varchar(20)" json:"dateOfDeath,omitempty"`
	Gender      string `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Occupation  string `gorm:"type:varchar(150)" json:"occupation,omitempty"`
	Location    string `gorm:"type:varchar(255)" json:"location,omitempty"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`
	Photo       string `gorm:"type:varchar(255)" json:"photo,omitempty"`
}

const NodeTypeFamilyMember = "familyMember"

// TreeNode is a positioned person in the free-form graph. It is not linked to
// Member records.
type TreeNode struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    int       `gorm:"not null;index" json:"-"`
	Type      string    `gorm:"type:varchar(32);default:familyMember" json:"type"`
	Position  Position  `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	Data      NodeData  `gorm:"embedded;embeddedPrefix:data_" json:"data"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

type EdgeData struct {
	RelationshipType RelationshipType `gorm:"type:varchar(32);not null" json:"relationshipType"`
}

type TreeEdge struct {
	ID        string    `gorm:"primaryKey;type:varchar(160)" json:"id"`
	UserID    int       `gorm:"not null;index" json:"-"`
	Source    string    `gorm:"type:varchar(64);not null;index" json:"source"`
	Target    string    `gorm:"type:varchar(64);not null;index" json:"target"`
	Type      string    `gorm:"type:varchar(32);default:smoothstep" json:"type"`
	Label     string    `gorm:"type:varchar(64)" json:"label"`
	Data      EdgeData  `gorm:"embedded;embeddedPrefix:data_" json:"data"`
	Style     EdgeStyle `gorm:"embedded;embeddedPrefix:style_" json:"style"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

// NewEdge builds a connection whose label and style follow from its tag.
// Invalid tags become RelationOther.
func NewEdge(source, target string, rt RelationshipType, at time.Time) TreeEdge {
	e := TreeEdge{
		ID:     fmt.Sprintf("%s-%s-%d", source, target, at.UnixNano()),
		Source: source,
		Target: target,
		Data:   EdgeData{RelationshipType: rt},
	}
	e.Normalize()
	return e
}

// Normalize re-derives type, label and style from the relationship tag.
func (e *TreeEdge) Normalize() {
	if !e.Data.RelationshipType.Valid() {
		e.Data.RelationshipType = RelationOther
	}
	e.Type = "smoothstep"
	e.Label = e.Data.RelationshipType.Label()
	e.Style = e.Data.RelationshipType.Style()
}

// Touches reports whether nodeID is either endpoint of the edge.
func (e TreeEdge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

type FamilyGraph struct {
	Nodes []TreeNode `json:"nodes"`
	Edges []TreeEdge `json:"edges"`
}

type DeleteSummary struct {
	DeletedNodes       int64 `json:"deletedNodes"`
	DeletedConnections int64 `json:"deletedConnections"`
}

const (
	ClearAllPhrase = "DELETE ALL"
	WipeAllPhrase  = "NUCLEAR DELETE"
)

type ConfirmRequest struct {
	Confirm string `json:"confirm"`
}

// NodeForm carries the multipart fields of a node create or edit request.
type NodeForm struct {
	NodeID      string     `json:"nodeId"`
	Name        string     `json:"name" valid:"required~Name is required"`
	DateOfBirth string     `json:"dateOfBirth"`
	DateOfDeath string     `json:"dateOfDeath"`
	Gender      string     `json:"gender" valid:"in(male|female|other)~Invalid gender"`
	Occupation  string     `json:"occupation"`
	Location    string     `json:"location"`
	Notes       string     `json:"notes"`
	Position    *Position  `json:"-" valid:"-"`
	Photo       *PhotoFile `json:"-" valid:"-"`
}

func (f *NodeForm) NodeData() NodeData {
	return NodeData{
		Name:        strings.TrimSpace(f.Name),
		DateOfBirth: f.DateOfBirth,
		DateOfDeath: f.DateOfDeath,
		Gender:      f.Gender,
		Occupation:  f.Occupation,
		Location:    f.Location,
		Notes:       f.Notes,
	}
}

type FamilyGraphRepo interface {
	GetGraph(ctx context.Context, userID int) (*FamilyGraph, error)
	GetNode(ctx context.Context, userID int, nodeID string) (*TreeNode, error)
	CreateNode(ctx context.Context, node *TreeNode) error
	UpdateNode(ctx context.Context, node *TreeNode) error
	SaveGraph(ctx context.Context, userID int, graph *FamilyGraph) error
	DeleteNode(ctx context.Context, userID int, nodeID string) (*DeleteSummary, error)
	ClearAll(ctx context.Context, userID int) (*DeleteSummary, error)
	WipeAll(ctx context.Context) (*DeleteSummary, error)
}

type FamilyGraphUseCase interface {
	GetGraph(ctx context.Context, userID int) (*FamilyGraph, error)
	CreateNode(ctx context.Context, userID int, form *NodeForm, photo *multipart.FileHeader) (*TreeNode, error)
	UpdateNode(ctx context.Context, userID int, nodeID string, form *NodeForm, photo *multipart.FileHeader) (*TreeNode, error)
	SaveGraph(ctx context.Context, userID int, graph *FamilyGraph) error
	DeleteNode(ctx context.Context, userID int, nodeID string) (*DeleteSummary, error)
	ClearAll(ctx context.Context, userID int, confirm string) (*DeleteSummary, error)
	WipeAll(ctx context.Context, confirm string) (*DeleteSummary, error)
}
