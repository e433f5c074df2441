// Package scoring derives per-project component statuses and propagates
// component changes to every project depending on the changed package.
package scoring

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opsledger/catalog/internal/models"
	"github.com/opsledger/catalog/internal/repository"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"github.com/opsledger/catalog/pkg/logger"
)

// Cascader recomputes derived component scores for every project that
// records a version of a changed package. Dependents are processed
// independently: a project deleted between the fan-out query and its
// upsert is skipped, any other failure aborts the remaining fan-out.
type Cascader struct {
	scores repository.ScoreRepository
}

func NewCascader(scores repository.ScoreRepository) *Cascader {
	return &Cascader{scores: scores}
}

// Rescore runs the fan-out for one component. The component is the
// post-update snapshot; which field changed is the caller's concern
// (see CascadeRequired).
func (c *Cascader) Rescore(ctx context.Context, component *models.Component) error {
	projectIDs, err := c.scores.DistinctProjectIDs(ctx, component.PackageURL)
	if err != nil {
		return err
	}
	logger.L().Info("rescoring projects affected by component change",
		zap.String("package_url", component.PackageURL),
		zap.Int("projects", len(projectIDs)))

	for _, projectID := range projectIDs {
		if err := c.rescoreProject(ctx, projectID, component); err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				// the project was deleted after the fan-out query;
				// its score row is moot, move on
				logger.L().Warn("project removed during rescore, skipping",
					zap.Int64("project_id", projectID),
					zap.String("package_url", component.PackageURL),
					zap.Error(err))
				continue
			}
			return apperrors.Wrap(err, apperrors.CodeInternal, "component rescore aborted").
				WithMeta("project_id", projectID)
		}
	}
	return nil
}

func (c *Cascader) rescoreProject(ctx context.Context, projectID int64, component *models.Component) error {
	versions, err := c.scores.ProjectVersions(ctx, projectID, component.PackageURL)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		// the association vanished between the fan-out query and now
		logger.L().Debug("project no longer records package, skipping",
			zap.Int64("project_id", projectID),
			zap.String("package_url", component.PackageURL))
		return nil
	}

	// a project may record several versions of the same package; one
	// satisfying version is enough to count as up to date
	status := models.ScoreUnscored
	for _, version := range versions {
		s := DeriveStatus(component.ActiveVersion, version)
		if s == models.ScoreUpToDate {
			status = s
			break
		}
		if s == models.ScoreOutdated {
			status = s
		}
	}

	return c.scores.Upsert(ctx, &models.ComponentScore{
		ProjectID:  projectID,
		PackageURL: component.PackageURL,
		Status:     status,
		Score:      ScoreValue(component.Status, status),
	})
}
