package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/opsledger/catalog/internal/models"
	"github.com/opsledger/catalog/internal/repository"
)

type ProjectService interface {
	// GetProject assembles the full project aggregate. The root record
	// is loaded first; every related collection is then loaded
	// concurrently and any single failure fails the whole load. No
	// partial aggregate is ever returned.
	GetProject(ctx context.Context, projectID int64) (*models.ProjectAggregate, error)
}

type projectService struct {
	projects repository.ProjectRepository
}

func NewProjectService(projects repository.ProjectRepository) ProjectService {
	return &projectService{projects: projects}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) GetProject(ctx context.Context, projectID int64) (*models.ProjectAggregate, error) {
	root, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var (
		ns           *models.Namespace
		pt           *models.ProjectType
		facts        []models.ProjectFact
		links        []models.ProjectLink
		urls         []models.ProjectURL
		identifiers  []models.ProjectIdentifier
		components   []models.ComponentRef
		dependencies []models.ProjectDependency
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ns, err = s.projects.Namespace(gctx, root.NamespaceID)
		return err
	})
	g.Go(func() (err error) {
		pt, err = s.projects.ProjectType(gctx, root.ProjectTypeID)
		return err
	})
	g.Go(func() (err error) {
		facts, err = s.projects.Facts(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		links, err = s.projects.Links(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		urls, err = s.projects.URLs(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		identifiers, err = s.projects.Identifiers(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		components, err = s.projects.Components(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		dependencies, err = s.projects.Dependencies(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := &models.ProjectAggregate{
		ID:             root.ID,
		Name:           root.Name,
		Slug:           root.Slug,
		Description:    root.Description,
		Archived:       root.Archived,
		Namespace:      *ns,
		ProjectType:    *pt,
		Facts:          make(map[string]any, len(facts)),
		Links:          make(map[string]string, len(links)),
		URLs:           make(map[string]string, len(urls)),
		Identifiers:    make(map[string]string, len(identifiers)),
		Components:     components,
		ComponentsList: make([]string, 0, len(components)),
		Dependencies:   make([]int64, 0, len(dependencies)),
		ProjectScore:   weightedScore(facts),
		CreatedAt:      root.CreatedAt,
		CreatedBy:      root.CreatedBy,
		LastModifiedAt: root.LastModifiedAt,
		LastModifiedBy: root.LastModifiedBy,
	}
	for _, f := range facts {
		agg.Facts[f.Name] = factValue(f)
	}
	for _, l := range links {
		agg.Links[l.LinkType] = l.URL
	}
	for _, u := range urls {
		agg.URLs[u.Environment] = u.URL
	}
	for _, id := range identifiers {
		agg.Identifiers[id.IntegrationName] = id.ExternalID
	}
	for _, c := range components {
		agg.ComponentsList = append(agg.ComponentsList, fmt.Sprintf("%s@%s", c.Name, c.Version))
	}
	for _, d := range dependencies {
		agg.Dependencies = append(agg.Dependencies, d.DependencyID)
	}
	return agg, nil
}

// factValue unwraps the recorded JSON value; unrecorded facts are nil.
func factValue(f models.ProjectFact) any {
	if len(f.Value) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(f.Value, &v); err != nil {
		return string(f.Value)
	}
	return v
}

// weightedScore is the project health projection: the weight-averaged
// fact scores, 0 when no weighted facts apply.
func weightedScore(facts []models.ProjectFact) float64 {
	var sum, weights float64
	for _, f := range facts {
		if f.Weight <= 0 {
			continue
		}
		sum += f.Score * float64(f.Weight)
		weights += float64(f.Weight)
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}
