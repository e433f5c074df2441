package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/opsledger/catalog/internal/models"
	"github.com/opsledger/catalog/internal/repository"
	"github.com/opsledger/catalog/internal/scoring"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"github.com/opsledger/catalog/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "console"); err != nil {
		panic(err)
	}
	m.Run()
}

func TestNewRescoreTask(t *testing.T) {
	task, err := NewRescoreTask("pkg:generic/foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TypeComponentRescore {
		t.Fatalf("wrong task type: %s", task.Type())
	}
	var p RescorePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload not decodable: %v", err)
	}
	if p.PackageURL != "pkg:generic/foo" {
		t.Fatalf("wrong payload: %+v", p)
	}
}

type stubComponentRepo struct {
	component *models.Component
	getErr    error
}

func (s *stubComponentRepo) ListPage(context.Context, string, int) ([]repository.ComponentListRow, error) {
	return nil, nil
}

func (s *stubComponentRepo) Get(context.Context, string) (*models.Component, error) {
	return s.component, s.getErr
}

func (s *stubComponentRepo) Create(context.Context, *models.Component) error { return nil }

func (s *stubComponentRepo) UpdateKeyed(context.Context, string, *models.Component) error {
	return nil
}

func (s *stubComponentRepo) Delete(context.Context, string) error { return nil }

func (s *stubComponentRepo) ProjectComponentsPage(context.Context, int64, string, int) ([]models.ProjectComponentRow, error) {
	return nil, nil
}

type stubScoreRepo struct {
	upserted []*models.ComponentScore
}

func (s *stubScoreRepo) DistinctProjectIDs(context.Context, string) ([]int64, error) {
	return []int64{1}, nil
}

func (s *stubScoreRepo) ProjectVersions(context.Context, int64, string) ([]string, error) {
	return []string{"1.2.3"}, nil
}

func (s *stubScoreRepo) Upsert(_ context.Context, score *models.ComponentScore) error {
	s.upserted = append(s.upserted, score)
	return nil
}

func rescoreTask(t *testing.T, packageURL string) *asynq.Task {
	t.Helper()
	task, err := NewRescoreTask(packageURL)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestHandleRescoreRunsCascade(t *testing.T) {
	v := ">=1.0"
	components := &stubComponentRepo{component: &models.Component{
		PackageURL:    "pkg:generic/foo",
		Status:        models.StatusActive,
		ActiveVersion: &v,
	}}
	scores := &stubScoreRepo{}
	h := NewRescoreTaskHandler(components, scoring.NewCascader(scores))

	if err := h.HandleRescore(context.Background(), rescoreTask(t, "pkg:generic/foo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores.upserted) != 1 {
		t.Fatalf("expected one score upsert, got %d", len(scores.upserted))
	}
	if scores.upserted[0].Status != models.ScoreUpToDate {
		t.Fatalf("unexpected status: %s", scores.upserted[0].Status)
	}
}

func TestHandleRescoreDropsTaskForDeletedComponent(t *testing.T) {
	components := &stubComponentRepo{getErr: apperrors.Newf(apperrors.CodeNotFound, "component pkg:generic/foo not found")}
	h := NewRescoreTaskHandler(components, scoring.NewCascader(&stubScoreRepo{}))

	if err := h.HandleRescore(context.Background(), rescoreTask(t, "pkg:generic/foo")); err != nil {
		t.Fatalf("deleted component must drop the task, got %v", err)
	}
}

func TestHandleRescoreRejectsBadPayload(t *testing.T) {
	h := NewRescoreTaskHandler(&stubComponentRepo{}, scoring.NewCascader(&stubScoreRepo{}))

	task := asynq.NewTask(TypeComponentRescore, []byte("not json"))
	if err := h.HandleRescore(context.Background(), task); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
