package models

import (
	"time"
)

// ProjectComponentStatus is the derived per-project status of a component.
type ProjectComponentStatus string

const (
	ScoreUnscored ProjectComponentStatus = "Unscored"
	ScoreUpToDate ProjectComponentStatus = "Up-to-date"
	ScoreOutdated ProjectComponentStatus = "Outdated"
)

// ProjectComponent associates a project with one component version.
type ProjectComponent struct {
	ProjectID  int64     `gorm:"primaryKey" json:"project_id"`
	VersionID  int64     `gorm:"primaryKey" json:"version_id"`
	PackageURL string    `gorm:"column:package_url;not null;index" json:"package_url"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `gorm:"not null" json:"created_by"`
}

// ComponentScore is the derived state for one (project, package) pair.
// It is recomputed by the cascade whenever the upstream component's
// status or active version changes; staleness between recomputations is
// tolerated.
type ComponentScore struct {
	ProjectID  int64                  `gorm:"primaryKey" json:"project_id"`
	PackageURL string                 `gorm:"column:package_url;primaryKey" json:"package_url"`
	Status     ProjectComponentStatus `gorm:"type:varchar(16);not null" json:"status"`
	Score      int                    `gorm:"not null;default:0" json:"score"`
	RecordedAt time.Time              `gorm:"not null" json:"recorded_at"`
}

// ProjectComponentRow is the read-side row for a project's component
// listing: the component joined with the version the project uses. The
// Status column starts as the component status and is rewritten to the
// derived Unscored/Up-to-date/Outdated value for active components.
type ProjectComponentRow struct {
	PackageURL    string  `json:"package_url"`
	Name          string  `json:"name"`
	IconClass     string  `json:"icon_class"`
	Status        string  `json:"status"`
	ActiveVersion *string `json:"active_version,omitempty"`
	Version       string  `json:"version"`
}
