package repository

import (
	"context"
	"errors"

	"github.com/opsledger/catalog/internal/models"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"gorm.io/gorm"
)

// ProjectRepository reads the project root record and its related
// collections. Each method issues one independent query; the aggregate
// loader fans these out concurrently.
type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	Namespace(ctx context.Context, id int64) (*models.Namespace, error)
	ProjectType(ctx context.Context, id int64) (*models.ProjectType, error)
	Facts(ctx context.Context, projectID int64) ([]models.ProjectFact, error)
	Links(ctx context.Context, projectID int64) ([]models.ProjectLink, error)
	URLs(ctx context.Context, projectID int64) ([]models.ProjectURL, error)
	Identifiers(ctx context.Context, projectID int64) ([]models.ProjectIdentifier, error)
	Components(ctx context.Context, projectID int64) ([]models.ComponentRef, error)
	Dependencies(ctx context.Context, projectID int64) ([]models.ProjectDependency, error)
}

type projectRepository struct {
	base BaseRepository[models.Project]
	db   *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{base: NewBaseRepository[models.Project](db), db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	if err := r.base.GetByID(ctx, id, &p); err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "project %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Namespace(ctx context.Context, id int64) (*models.Namespace, error) {
	var ns models.Namespace
	if err := r.db.WithContext(ctx).First(&ns, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "namespace %d not found", id)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load namespace failed")
	}
	return &ns, nil
}

func (r *projectRepository) ProjectType(ctx context.Context, id int64) (*models.ProjectType, error) {
	var pt models.ProjectType
	if err := r.db.WithContext(ctx).First(&pt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "project type %d not found", id)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project type failed")
	}
	return &pt, nil
}

// factsSQL resolves enum and range scores store-side and returns them as
// scalars, zero when unrecorded or unmatched.
const factsSQL = `
SELECT ft.id, ft.name, ft.fact_type, ft.data_type, f.value,
       CASE WHEN f.value IS NULL THEN 0
            WHEN ft.fact_type = 'enum' THEN COALESCE((
                 SELECT e.score FROM project_fact_type_enums AS e
                  WHERE e.fact_type_id = f.fact_type_id
                    AND e.value = f.value #>> '{}'), 0)
            WHEN ft.fact_type = 'range' THEN COALESCE((
                 SELECT ra.score FROM project_fact_type_ranges AS ra
                  WHERE ra.fact_type_id = f.fact_type_id
                    AND (f.value #>> '{}')::numeric BETWEEN ra.min_value AND ra.max_value), 0)
            ELSE 0
       END AS score,
       ft.weight
  FROM project_fact_types AS ft
  LEFT JOIN project_facts AS f
    ON f.fact_type_id = ft.id AND f.project_id = ?
 ORDER BY ft.name`

func (r *projectRepository) Facts(ctx context.Context, projectID int64) ([]models.ProjectFact, error) {
	var facts []models.ProjectFact
	if err := r.db.WithContext(ctx).Raw(factsSQL, projectID).Scan(&facts).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project facts failed")
	}
	return facts, nil
}

const linksSQL = `
SELECT l.project_id, l.link_type_id, l.url, l.created_at, l.created_by, t.link_type
  FROM project_links AS l
  JOIN project_link_types AS t ON t.id = l.link_type_id
 WHERE l.project_id = ?
 ORDER BY t.link_type`

func (r *projectRepository) Links(ctx context.Context, projectID int64) ([]models.ProjectLink, error) {
	var links []models.ProjectLink
	if err := r.db.WithContext(ctx).Raw(linksSQL, projectID).Scan(&links).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project links failed")
	}
	return links, nil
}

func (r *projectRepository) URLs(ctx context.Context, projectID int64) ([]models.ProjectURL, error) {
	var urls []models.ProjectURL
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("environment").
		Find(&urls).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project urls failed")
	}
	return urls, nil
}

func (r *projectRepository) Identifiers(ctx context.Context, projectID int64) ([]models.ProjectIdentifier, error) {
	var ids []models.ProjectIdentifier
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("integration_name").
		Find(&ids).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project identifiers failed")
	}
	return ids, nil
}

const projectComponentRefsSQL = `
SELECT pc.package_url AS name, v.version
  FROM project_components AS pc
  JOIN component_versions AS v ON v.id = pc.version_id
 WHERE pc.project_id = ?
 ORDER BY pc.package_url, v.version`

func (r *projectRepository) Components(ctx context.Context, projectID int64) ([]models.ComponentRef, error) {
	var refs []models.ComponentRef
	if err := r.db.WithContext(ctx).Raw(projectComponentRefsSQL, projectID).Scan(&refs).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project components failed")
	}
	return refs, nil
}

func (r *projectRepository) Dependencies(ctx context.Context, projectID int64) ([]models.ProjectDependency, error) {
	var deps []models.ProjectDependency
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("dependency_id").
		Find(&deps).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "load project dependencies failed")
	}
	return deps, nil
}
