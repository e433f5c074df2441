package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/opsledger/catalog/internal/models"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"github.com/opsledger/catalog/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "console"); err != nil {
		panic(err)
	}
	m.Run()
}

// fakeScoreRepository serves a fixed project/version layout and records
// upserts. Per-project errors can be injected to simulate concurrently
// deleted projects and systemic failures.
type fakeScoreRepository struct {
	projects   []int64
	versions   map[int64][]string
	upsertErrs map[int64]error

	fanOutErr error
	upserted  []*models.ComponentScore
}

func (f *fakeScoreRepository) DistinctProjectIDs(_ context.Context, _ string) ([]int64, error) {
	if f.fanOutErr != nil {
		return nil, f.fanOutErr
	}
	return f.projects, nil
}

func (f *fakeScoreRepository) ProjectVersions(_ context.Context, projectID int64, _ string) ([]string, error) {
	return f.versions[projectID], nil
}

func (f *fakeScoreRepository) Upsert(_ context.Context, score *models.ComponentScore) error {
	if err := f.upsertErrs[score.ProjectID]; err != nil {
		return err
	}
	f.upserted = append(f.upserted, score)
	return nil
}

func activeComponent(activeVersion string) *models.Component {
	return &models.Component{
		PackageURL:    "pkg:generic/foo",
		Name:          "foo",
		Status:        models.StatusActive,
		ActiveVersion: &activeVersion,
	}
}

func findScore(t *testing.T, scores []*models.ComponentScore, projectID int64) *models.ComponentScore {
	t.Helper()
	for _, s := range scores {
		if s.ProjectID == projectID {
			return s
		}
	}
	t.Fatalf("no score recorded for project %d", projectID)
	return nil
}

func TestRescoreDerivesStatusPerProject(t *testing.T) {
	repo := &fakeScoreRepository{
		projects: []int64{1, 2, 3},
		versions: map[int64][]string{
			1: {"3.1.0"},          // satisfies the range
			2: {"2.4.0"},          // below it
			3: {"2.0.0", "3.2.0"}, // one satisfying version wins
		},
	}
	cascader := NewCascader(repo)

	if err := cascader.Rescore(context.Background(), activeComponent(">=3.0")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 3 {
		t.Fatalf("expected 3 score rows, got %d", len(repo.upserted))
	}

	s := findScore(t, repo.upserted, 1)
	if s.Status != models.ScoreUpToDate || s.Score != 100 {
		t.Fatalf("project 1: expected Up-to-date/100, got %s/%d", s.Status, s.Score)
	}
	s = findScore(t, repo.upserted, 2)
	if s.Status != models.ScoreOutdated || s.Score != 0 {
		t.Fatalf("project 2: expected Outdated/0, got %s/%d", s.Status, s.Score)
	}
	s = findScore(t, repo.upserted, 3)
	if s.Status != models.ScoreUpToDate {
		t.Fatalf("project 3: expected Up-to-date, got %s", s.Status)
	}
}

func TestRescoreDeprecatedComponentScoresZero(t *testing.T) {
	repo := &fakeScoreRepository{
		projects: []int64{1},
		versions: map[int64][]string{1: {"3.1.0"}},
	}
	v := ">=3.0"
	component := &models.Component{
		PackageURL:    "pkg:generic/foo",
		Name:          "foo",
		Status:        models.StatusDeprecated,
		ActiveVersion: &v,
	}

	if err := NewCascader(repo).Rescore(context.Background(), component); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := findScore(t, repo.upserted, 1)
	if s.Status != models.ScoreUpToDate || s.Score != 0 {
		t.Fatalf("expected Up-to-date/0, got %s/%d", s.Status, s.Score)
	}
}

func TestRescoreSkipsVanishedProject(t *testing.T) {
	repo := &fakeScoreRepository{
		projects: []int64{1, 2, 3},
		versions: map[int64][]string{
			1: {"3.1.0"},
			2: {"3.1.0"},
			3: {"3.1.0"},
		},
		upsertErrs: map[int64]error{
			2: fmt.Errorf("insert component_scores: %w", gorm.ErrForeignKeyViolated),
		},
	}

	if err := NewCascader(repo).Rescore(context.Background(), activeComponent(">=3.0")); err != nil {
		t.Fatalf("a vanished project must not fail the cascade: %v", err)
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("expected remaining 2 projects rescored, got %d", len(repo.upserted))
	}
	findScore(t, repo.upserted, 1)
	findScore(t, repo.upserted, 3)
}

func TestRescoreSkipsProjectWithoutVersions(t *testing.T) {
	repo := &fakeScoreRepository{
		projects: []int64{1, 2},
		versions: map[int64][]string{1: {"3.1.0"}},
	}

	if err := NewCascader(repo).Rescore(context.Background(), activeComponent(">=3.0")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 1 || repo.upserted[0].ProjectID != 1 {
		t.Fatalf("expected only project 1 rescored, got %+v", repo.upserted)
	}
}

func TestRescoreAbortsOnSystemicFailure(t *testing.T) {
	repo := &fakeScoreRepository{
		projects: []int64{1, 2, 3},
		versions: map[int64][]string{
			1: {"3.1.0"},
			2: {"3.1.0"},
			3: {"3.1.0"},
		},
		upsertErrs: map[int64]error{
			2: errors.New("connection reset"),
		},
	}

	err := NewCascader(repo).Rescore(context.Background(), activeComponent(">=3.0"))
	if !apperrors.IsCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	// the failing project aborted the remaining fan-out
	if len(repo.upserted) != 1 {
		t.Fatalf("expected fan-out stopped after failure, got %d rows", len(repo.upserted))
	}
}

func TestRescoreFanOutQueryFailure(t *testing.T) {
	repo := &fakeScoreRepository{fanOutErr: errors.New("relation missing")}
	if err := NewCascader(repo).Rescore(context.Background(), activeComponent(">=3.0")); err == nil {
		t.Fatal("expected error")
	}
}
