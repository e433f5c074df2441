package repository

import (
	"context"
	"time"

	"github.com/opsledger/catalog/internal/models"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreRepository reads the dependency fan-out set and persists derived
// component scores.
type ScoreRepository interface {
	// DistinctProjectIDs returns the ids of every project recording a
	// version of the given package.
	DistinctProjectIDs(ctx context.Context, packageURL string) ([]int64, error)
	// ProjectVersions returns the versions of the package the project
	// currently records.
	ProjectVersions(ctx context.Context, projectID int64, packageURL string) ([]string, error)
	// Upsert writes the derived score row for one (project, package)
	// pair. A foreign-key violation is passed through untranslated so
	// the cascade can recognize a concurrently deleted project.
	Upsert(ctx context.Context, score *models.ComponentScore) error
}

type scoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) DistinctProjectIDs(ctx context.Context, packageURL string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectComponent{}).
		Distinct("project_id").
		Where("package_url = ?", packageURL).
		Pluck("project_id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "retrieve affected projects failed")
	}
	return ids, nil
}

func (r *scoreRepository) ProjectVersions(ctx context.Context, projectID int64, packageURL string) ([]string, error) {
	var versions []string
	err := r.db.WithContext(ctx).
		Model(&models.ProjectComponent{}).
		Joins("JOIN component_versions v ON v.id = project_components.version_id").
		Where("project_components.project_id = ? AND project_components.package_url = ?", projectID, packageURL).
		Order("v.version").
		Pluck("v.version", &versions).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "retrieve project versions failed")
	}
	return versions, nil
}

func (r *scoreRepository) Upsert(ctx context.Context, score *models.ComponentScore) error {
	score.RecordedAt = time.Now().UTC()
	// FK violations are returned as-is (gorm.ErrForeignKeyViolated with
	// TranslateError) so the caller can distinguish a vanished project
	// from a systemic failure.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "package_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "score", "recorded_at"}),
		}).
		Create(score).Error
}
