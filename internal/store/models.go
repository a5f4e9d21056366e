package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mindcanvas/internal/mindmap"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"not null;size:100" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// MindMapRecord is the stored form of a mind map. The document graph is
// kept as JSON columns; collaborators live in their own table.
type MindMapRecord struct {
	ID          string               `gorm:"primaryKey;size:64"`
	OwnerID     string               `gorm:"index;not null;size:36"`
	Title       string               `gorm:"not null;size:100"`
	Description string               `gorm:"size:500"`
	IsPublic    bool                 `gorm:"default:false"`
	Nodes       []mindmap.Node       `gorm:"type:text;serializer:json"`
	Connections []mindmap.Connection `gorm:"type:text;serializer:json"`
	Canvas      mindmap.CanvasState  `gorm:"type:text;serializer:json"`
	Tags        []string             `gorm:"type:text;serializer:json"`
	Version     int                  `gorm:"not null;default:1"`
	CreatedAt   time.Time            `gorm:"index"`
	UpdatedAt   time.Time            `gorm:"index"`

	Collaborators []Collaborator `gorm:"foreignKey:MindMapID;constraint:OnDelete:CASCADE"`
}

func (MindMapRecord) TableName() string { return "mind_maps" }

func (r *MindMapRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Collaborator grants a user edit access to a map it does not own.
type Collaborator struct {
	MindMapID string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func toRecord(m mindmap.MindMap) MindMapRecord {
	return MindMapRecord{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		IsPublic:    m.IsPublic,
		Nodes:       m.Nodes,
		Connections: m.Connections,
		Canvas:      m.Canvas,
		Tags:        m.Tags,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r MindMapRecord) toMindMap() mindmap.MindMap {
	collabs := make([]string, 0, len(r.Collaborators))
	for _, c := range r.Collaborators {
		collabs = append(collabs, c.UserID)
	}
	return mindmap.Sanitize(mindmap.MindMap{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		IsPublic:      r.IsPublic,
		Nodes:         r.Nodes,
		Connections:   r.Connections,
		Canvas:        r.Canvas,
		Tags:          r.Tags,
		Version:       r.Version,
		Collaborators: collabs,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	})
}
