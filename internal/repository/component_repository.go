package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opsledger/catalog/internal/models"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"gorm.io/gorm"
)

// ComponentListRow is a component with the collection-listing aggregates.
type ComponentListRow struct {
	models.Component
	VersionCount int64 `json:"version_count"`
	ProjectCount int64 `json:"project_count"`
}

// ComponentRepository persists catalog components. List queries use
// keyset predicates: ascending order on package_url with a strict
// greater-than bound, matching the pagination token contract.
type ComponentRepository interface {
	ListPage(ctx context.Context, startingPackage string, limit int) ([]ComponentListRow, error)
	Get(ctx context.Context, packageURL string) (*models.Component, error)
	Create(ctx context.Context, c *models.Component) error
	// UpdateKeyed issues the conditional write for a patched component:
	// the predicate is the package URL the snapshot was read under, not
	// the possibly-renamed one being written.
	UpdateKeyed(ctx context.Context, originalPackageURL string, c *models.Component) error
	Delete(ctx context.Context, packageURL string) error
	ProjectComponentsPage(ctx context.Context, projectID int64, startingPackage string, limit int) ([]models.ProjectComponentRow, error)
}

type componentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) ComponentRepository {
	return &componentRepository{db: db}
}

const componentPageSQL = `
SELECT c.package_url, c.name, c.status, c.home_page, c.icon_class, c.active_version,
       c.created_at, c.created_by, c.last_modified_at, c.last_modified_by,
       COUNT(DISTINCT v.id) AS version_count,
       COUNT(p.project_id) AS project_count
  FROM components AS c
  LEFT JOIN component_versions AS v ON v.package_url = c.package_url
  LEFT JOIN project_components AS p ON p.version_id = v.id
 WHERE c.package_url > ?
 GROUP BY c.package_url
 ORDER BY c.package_url ASC
 LIMIT ?`

func (r *componentRepository) ListPage(ctx context.Context, startingPackage string, limit int) ([]ComponentListRow, error) {
	var rows []ComponentListRow
	if err := r.db.WithContext(ctx).Raw(componentPageSQL, startingPackage, limit).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list components failed")
	}
	return rows, nil
}

func (r *componentRepository) Get(ctx context.Context, packageURL string) (*models.Component, error) {
	var c models.Component
	if err := r.db.WithContext(ctx).First(&c, "package_url = ?", packageURL).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "component %s not found", packageURL)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "get component failed")
	}
	return &c, nil
}

func (r *componentRepository) Create(ctx context.Context, c *models.Component) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Newf(apperrors.CodeConflict, "component %s already exists", c.PackageURL)
		}
		return apperrors.Wrap(err, apperrors.CodeInternal, "create component failed")
	}
	return nil
}

func (r *componentRepository) UpdateKeyed(ctx context.Context, originalPackageURL string, c *models.Component) error {
	res := r.db.WithContext(ctx).Model(&models.Component{}).
		Where("package_url = ?", originalPackageURL).
		Updates(map[string]any{
			"package_url":      c.PackageURL,
			"name":             c.Name,
			"status":           c.Status,
			"home_page":        c.HomePage,
			"icon_class":       c.IconClass,
			"active_version":   c.ActiveVersion,
			"last_modified_at": time.Now().UTC(),
			"last_modified_by": c.LastModifiedBy,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.Newf(apperrors.CodeConflict, "component %s already exists", c.PackageURL)
		}
		return apperrors.Wrap(res.Error, apperrors.CodeInternal, "update component failed")
	}
	if res.RowsAffected == 0 {
		// the row read at patch time is gone or renamed
		return apperrors.Newf(apperrors.CodeConflict, "component %s was modified concurrently", originalPackageURL)
	}
	return nil
}

func (r *componentRepository) Delete(ctx context.Context, packageURL string) error {
	res := r.db.WithContext(ctx).Delete(&models.Component{}, "package_url = ?", packageURL)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, apperrors.CodeInternal, "delete component failed")
	}
	if res.RowsAffected == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "component %s not found", packageURL)
	}
	return nil
}

const projectComponentsPageSQL = `
SELECT c.package_url, c.name, c.icon_class, c.status, c.active_version, v.version
  FROM project_components AS p
  JOIN component_versions AS v ON v.id = p.version_id
  JOIN components AS c ON c.package_url = v.package_url
 WHERE c.package_url > ?
   AND p.project_id = ?
 ORDER BY c.package_url ASC
 LIMIT ?`

func (r *componentRepository) ProjectComponentsPage(ctx context.Context, projectID int64, startingPackage string, limit int) ([]models.ProjectComponentRow, error) {
	var rows []models.ProjectComponentRow
	if err := r.db.WithContext(ctx).Raw(projectComponentsPageSQL, startingPackage, projectID, limit).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list project components failed")
	}
	return rows, nil
}
