package models

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/package-url/packageurl-go"
)

// ComponentStatus is the lifecycle status of a catalog component.
type ComponentStatus string

const (
	StatusActive     ComponentStatus = "Active"
	StatusDeprecated ComponentStatus = "Deprecated"
	StatusForbidden  ComponentStatus = "Forbidden"
)

// Component is a tracked software package, keyed by its package URL.
type Component struct {
	PackageURL     string          `gorm:"column:package_url;primaryKey" json:"package_url"`
	Name           string          `gorm:"not null" json:"name"`
	Status         ComponentStatus `gorm:"type:varchar(16);not null;default:'Active';index" json:"status"`
	HomePage       *string         `gorm:"column:home_page" json:"home_page"`
	IconClass      string          `gorm:"not null;default:'fas fa-save'" json:"icon_class"`
	ActiveVersion  *string         `gorm:"column:active_version" json:"active_version"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `gorm:"not null" json:"created_by"`
	LastModifiedAt *time.Time      `json:"last_modified_at"`
	LastModifiedBy *string         `json:"last_modified_by"`
}

// ComponentSnapshot is the patchable field set of a component. It is what
// JSON Patch sequences are applied to; audit columns are never patchable.
type ComponentSnapshot struct {
	PackageURL    string          `json:"package_url" validate:"required,purl"`
	Name          string          `json:"name" validate:"required"`
	Status        ComponentStatus `json:"status" validate:"required,oneof=Active Deprecated Forbidden"`
	HomePage      *string         `json:"home_page" validate:"omitempty,url"`
	IconClass     string          `json:"icon_class" validate:"required"`
	ActiveVersion *string         `json:"active_version" validate:"omitempty,semverrange"`
}

// Snapshot extracts the patchable fields from the component row.
func (c *Component) Snapshot() ComponentSnapshot {
	return ComponentSnapshot{
		PackageURL:    c.PackageURL,
		Name:          c.Name,
		Status:        c.Status,
		HomePage:      c.HomePage,
		IconClass:     c.IconClass,
		ActiveVersion: c.ActiveVersion,
	}
}

// ApplySnapshot writes the patchable fields back onto the component row.
func (c *Component) ApplySnapshot(s ComponentSnapshot) {
	c.PackageURL = s.PackageURL
	c.Name = s.Name
	c.Status = s.Status
	c.HomePage = s.HomePage
	c.IconClass = s.IconClass
	c.ActiveVersion = s.ActiveVersion
}

// ComponentVersion is one observed version of a component.
type ComponentVersion struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	PackageURL string `gorm:"column:package_url;not null;uniqueIndex:idx_component_versions_purl_version" json:"package_url"`
	Version    string `gorm:"not null;uniqueIndex:idx_component_versions_purl_version" json:"version"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("purl", func(fl validator.FieldLevel) bool {
		_, err := packageurl.FromString(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("semverrange", func(fl validator.FieldLevel) bool {
		_, err := semver.NewConstraint(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateComponentSnapshot checks the snapshot against the component
// schema. The returned error is the full validator error; callers that
// need only the first violation can use FirstViolation.
func ValidateComponentSnapshot(s ComponentSnapshot) error {
	return validate.Struct(s)
}

// FirstViolation renders the first field violation of a validator error,
// or the whole error text when it is not a validation error.
func FirstViolation(err error) string {
	if err == nil {
		return ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Error()
	}
	return err.Error()
}
