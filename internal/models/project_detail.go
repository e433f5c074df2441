package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectFactType defines a scored fact that projects of certain types
// carry. Enum and range scoring tables are resolved store-side; the fact
// queries return the score as a scalar.
type ProjectFactType struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	FactType  string    `gorm:"type:varchar(16);not null" json:"fact_type"`
	DataType  string    `gorm:"type:varchar(16);not null" json:"data_type"`
	Weight    int       `gorm:"not null;default:0" json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectFactRow is a recorded fact value for one project.
type ProjectFactRow struct {
	ProjectID  int64          `gorm:"primaryKey" json:"project_id"`
	FactTypeID int64          `gorm:"primaryKey" json:"fact_type_id"`
	Value      datatypes.JSON `gorm:"type:jsonb" json:"value"`
	RecordedAt time.Time      `gorm:"not null" json:"recorded_at"`
	RecordedBy string         `gorm:"not null" json:"recorded_by"`
}

func (ProjectFactRow) TableName() string { return "project_facts" }

// ProjectFact is the read-side fact: type metadata joined with the
// recorded value and the store-resolved score.
type ProjectFact struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	FactType string         `json:"fact_type"`
	DataType string         `json:"data_type"`
	Value    datatypes.JSON `json:"value"`
	Score    float64        `json:"score"`
	Weight   int            `json:"weight"`
}

// ProjectFactTypeEnum scores one allowed value of an enum fact type.
type ProjectFactTypeEnum struct {
	FactTypeID int64   `gorm:"primaryKey" json:"fact_type_id"`
	Value      string  `gorm:"primaryKey" json:"value"`
	Score      float64 `gorm:"not null;default:0" json:"score"`
}

// ProjectFactTypeRange scores a numeric interval of a range fact type.
type ProjectFactTypeRange struct {
	FactTypeID int64   `gorm:"primaryKey" json:"fact_type_id"`
	MinValue   float64 `gorm:"primaryKey" json:"min_value"`
	MaxValue   float64 `gorm:"not null" json:"max_value"`
	Score      float64 `gorm:"not null;default:0" json:"score"`
}

// ProjectLinkType is a lookup row for link categories.
type ProjectLinkType struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	LinkType  string  `gorm:"not null;uniqueIndex" json:"link_type"`
	IconClass *string `json:"icon_class"`
}

// ProjectLink associates a categorized URL with a project.
type ProjectLink struct {
	ProjectID  int64     `gorm:"primaryKey" json:"project_id"`
	LinkTypeID int64     `gorm:"primaryKey" json:"link_type_id"`
	URL        string    `gorm:"not null" json:"url"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `gorm:"not null" json:"created_by"`
	// populated by the collection query join
	LinkType string `gorm:"-:migration;->" json:"link_type"`
}

// Environment is a deployment environment lookup row.
type Environment struct {
	Name      string  `gorm:"primaryKey" json:"name"`
	IconClass *string `json:"icon_class"`
}

// ProjectURL is the location of a project in one environment.
type ProjectURL struct {
	ProjectID   int64     `gorm:"primaryKey" json:"project_id"`
	Environment string    `gorm:"primaryKey" json:"environment"`
	URL         string    `gorm:"not null" json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `gorm:"not null" json:"created_by"`
}

// ProjectIdentifier maps a project to its id in an integrated system.
type ProjectIdentifier struct {
	ProjectID       int64     `gorm:"primaryKey" json:"project_id"`
	IntegrationName string    `gorm:"primaryKey" json:"integration_name"`
	ExternalID      string    `gorm:"not null" json:"external_id"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `gorm:"not null" json:"created_by"`
}

// ProjectDependency records that one project depends on another.
type ProjectDependency struct {
	ProjectID    int64     `gorm:"primaryKey" json:"project_id"`
	DependencyID int64     `gorm:"primaryKey" json:"dependency_id"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `gorm:"not null" json:"created_by"`
}
