package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/opsledger/catalog/internal/models"
	"github.com/opsledger/catalog/internal/pagination"
	"github.com/opsledger/catalog/internal/patch"
	"github.com/opsledger/catalog/internal/repository"
	"github.com/opsledger/catalog/internal/scoring"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"github.com/opsledger/catalog/pkg/logger"
)

const (
	startingPackageKey = "starting_package"
	projectIDKey       = "project_id"
)

// RescoreEnqueuer schedules the post-update cascade. Implementations
// must be fire-and-forget relative to the request: the triggering
// update has already committed when this is called.
type RescoreEnqueuer interface {
	EnqueueRescore(ctx context.Context, packageURL string) error
}

// ComponentPage is one page of the component collection.
type ComponentPage struct {
	Items     []repository.ComponentListRow `json:"items"`
	NextToken string                        `json:"next_token,omitempty"`
}

// ProjectComponentsPage is one page of a project's component listing.
type ProjectComponentsPage struct {
	Items     []models.ProjectComponentRow `json:"items"`
	NextToken string                       `json:"next_token,omitempty"`
}

// PatchOutcome reports the result of a patch: Modified false means the
// operation sequence was a no-op against the current snapshot and no
// write was issued.
type PatchOutcome struct {
	Component *models.Component
	Modified  bool
}

// CreateComponentInput carries the client-supplied component fields.
type CreateComponentInput struct {
	PackageURL    string  `json:"package_url"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	HomePage      *string `json:"home_page"`
	IconClass     string  `json:"icon_class"`
	ActiveVersion *string `json:"active_version"`
}

type ComponentService interface {
	List(ctx context.Context, token string) (*ComponentPage, error)
	Get(ctx context.Context, packageURL string) (*models.Component, error)
	Create(ctx context.Context, input *CreateComponentInput, actor string) (*models.Component, error)
	Patch(ctx context.Context, packageURL string, ops []byte, actor string) (*PatchOutcome, error)
	Delete(ctx context.Context, packageURL string) error
	ProjectComponents(ctx context.Context, projectID int64, token string) (*ProjectComponentsPage, error)
}

type componentService struct {
	components   repository.ComponentRepository
	rescore      RescoreEnqueuer
	defaultLimit int
	maxLimit     int
}

func NewComponentService(components repository.ComponentRepository, rescore RescoreEnqueuer, defaultLimit, maxLimit int) ComponentService {
	return &componentService{
		components:   components,
		rescore:      rescore,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

var _ ComponentService = (*componentService)(nil)

func (s *componentService) List(ctx context.Context, token string) (*ComponentPage, error) {
	tok, err := pagination.Decode(token, s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, err
	}
	// one extra row decides whether a continuation token is owed; a
	// full final page then ends the walk without an empty trailing page
	rows, err := s.components.ListPage(ctx, tok.Key(startingPackageKey), tok.Limit()+1)
	if err != nil {
		return nil, err
	}
	page := &ComponentPage{Items: rows}
	if len(rows) > tok.Limit() {
		page.Items = rows[:tok.Limit()]
		page.NextToken = tok.WithKey(startingPackageKey, page.Items[tok.Limit()-1].PackageURL).Encode()
	}
	return page, nil
}

func (s *componentService) Get(ctx context.Context, packageURL string) (*models.Component, error) {
	return s.components.Get(ctx, packageURL)
}

func (s *componentService) Create(ctx context.Context, input *CreateComponentInput, actor string) (*models.Component, error) {
	c := &models.Component{
		PackageURL:    input.PackageURL,
		Name:          input.Name,
		Status:        models.ComponentStatus(input.Status),
		HomePage:      input.HomePage,
		IconClass:     input.IconClass,
		ActiveVersion: input.ActiveVersion,
		CreatedBy:     actor,
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	if c.IconClass == "" {
		c.IconClass = "fas fa-save"
	}
	if err := models.ValidateComponentSnapshot(c.Snapshot()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalid, "invalid component").
			WithMeta("detail", models.FirstViolation(err))
	}
	if err := s.components.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.L().Info("component created",
		zap.String("package_url", c.PackageURL), zap.String("actor", actor))
	return c, nil
}

// Patch applies an RFC 6902 sequence to the component's snapshot,
// persists the result with a conditional write keyed by the original
// package URL, and schedules the score cascade when the change affects
// derived state. Cascade scheduling failures are logged, never
// surfaced: the update has already committed.
func (s *componentService) Patch(ctx context.Context, packageURL string, ops []byte, actor string) (*PatchOutcome, error) {
	current, err := s.components.Get(ctx, packageURL)
	if err != nil {
		return nil, err
	}
	original := current.Snapshot()

	result, err := patch.Apply(original, ops, func(snap models.ComponentSnapshot) error {
		if verr := models.ValidateComponentSnapshot(snap); verr != nil {
			return apperrors.Wrap(verr, apperrors.CodeInvalid, "patch produced an invalid component").
				WithMeta("detail", models.FirstViolation(verr))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Modified {
		return &PatchOutcome{Component: current, Modified: false}, nil
	}

	updated := *current
	updated.ApplySnapshot(result.Snapshot)
	updated.LastModifiedBy = &actor
	if err := s.components.UpdateKeyed(ctx, original.PackageURL, &updated); err != nil {
		return nil, err
	}

	if scoring.CascadeRequired(original, result.Snapshot) {
		if err := s.rescore.EnqueueRescore(ctx, updated.PackageURL); err != nil {
			logger.L().Error("failed to schedule component rescore",
				zap.String("package_url", updated.PackageURL), zap.Error(err))
		}
	}

	fresh, err := s.components.Get(ctx, updated.PackageURL)
	if err != nil {
		return nil, err
	}
	logger.L().Info("component patched",
		zap.String("package_url", fresh.PackageURL), zap.String("actor", actor))
	return &PatchOutcome{Component: fresh, Modified: true}, nil
}

func (s *componentService) Delete(ctx context.Context, packageURL string) error {
	return s.components.Delete(ctx, packageURL)
}

func (s *componentService) ProjectComponents(ctx context.Context, projectID int64, token string) (*ProjectComponentsPage, error) {
	tok, err := pagination.Decode(token, s.defaultLimit, s.maxLimit, requiredIfPresent(token, projectIDKey)...)
	if err != nil {
		return nil, err
	}
	if token == "" {
		tok = tok.WithKey(projectIDKey, strconv.FormatInt(projectID, 10))
	} else {
		tokenProject, err := tok.Int64Key(projectIDKey)
		if err != nil {
			return nil, err
		}
		if tokenProject != projectID {
			return nil, fmt.Errorf("%w: token is for another project", pagination.ErrInvalidToken)
		}
	}

	rows, err := s.components.ProjectComponentsPage(ctx, projectID, tok.Key(startingPackageKey), tok.Limit()+1)
	if err != nil {
		return nil, err
	}
	page := &ProjectComponentsPage{Items: rows}
	if len(rows) > tok.Limit() {
		page.Items = rows[:tok.Limit()]
		page.NextToken = tok.WithKey(startingPackageKey, page.Items[tok.Limit()-1].PackageURL).Encode()
	}
	for i := range page.Items {
		annotateProjectComponent(&page.Items[i])
	}
	return page, nil
}

// annotateProjectComponent rewrites the component status column into the
// derived per-project status. The stored status is kept for Deprecated
// and Forbidden components; Active ones report whether the recorded
// version satisfies the active range.
func annotateProjectComponent(row *models.ProjectComponentRow) {
	if row.ActiveVersion == nil {
		row.Status = string(models.ScoreUnscored)
		return
	}
	if row.Status == string(models.StatusActive) {
		row.Status = string(scoring.DeriveStatus(row.ActiveVersion, row.Version))
	}
}

func requiredIfPresent(token string, keys ...string) []string {
	if token == "" {
		return nil
	}
	return keys
}
