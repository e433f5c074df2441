package models

import (
	"time"
)

// Project is the root record of the project aggregate.
type Project struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	NamespaceID    int64      `gorm:"not null;index" json:"-"`
	ProjectTypeID  int64      `gorm:"not null;index" json:"-"`
	Name           string     `gorm:"not null" json:"name"`
	Slug           string     `gorm:"not null;uniqueIndex" json:"slug"`
	Description    *string    `gorm:"type:text" json:"description"`
	Archived       bool       `gorm:"not null;default:false" json:"archived"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `gorm:"not null" json:"created_by"`
	LastModifiedAt *time.Time `json:"last_modified_at"`
	LastModifiedBy *string    `json:"last_modified_by"`
}

// Namespace groups projects by owning team.
type Namespace struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex" json:"slug"`
	IconClass string    `gorm:"not null" json:"icon_class"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `gorm:"not null" json:"created_by"`
}

// ProjectType classifies projects (API, consumer, library, ...).
type ProjectType struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Slug       string    `gorm:"not null;uniqueIndex" json:"slug"`
	PluralName string    `gorm:"not null" json:"plural_name"`
	IconClass  *string   `json:"icon_class"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `gorm:"not null" json:"created_by"`
}

// ComponentRef is the name/version projection of one project component.
type ComponentRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ProjectAggregate is the fully assembled project: the root record with
// foreign keys replaced by resolved entities, sub-collections flattened
// into maps, and the component projections derived. It is built per
// fetch and never cached; each sub-load observes the store at call time,
// so the aggregate is best-effort consistent rather than a snapshot.
type ProjectAggregate struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Slug           string             `json:"slug"`
	Description    *string            `json:"description"`
	Archived       bool               `json:"archived"`
	Namespace      Namespace          `json:"namespace"`
	ProjectType    ProjectType        `json:"project_type"`
	Facts          map[string]any     `json:"facts"`
	Links          map[string]string  `json:"links"`
	URLs           map[string]string  `json:"urls"`
	Identifiers    map[string]string  `json:"identifiers"`
	Components     []ComponentRef     `json:"components"`
	ComponentsList []string           `json:"component_versions"`
	Dependencies   []int64            `json:"dependencies"`
	ProjectScore   float64            `json:"project_score"`
	CreatedAt      time.Time          `json:"created_at"`
	CreatedBy      string             `json:"created_by"`
	LastModifiedAt *time.Time         `json:"last_modified_at"`
	LastModifiedBy *string            `json:"last_modified_by"`
}
