package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/opsledger/catalog/internal/repository"
	"github.com/opsledger/catalog/internal/scoring"
	apperrors "github.com/opsledger/catalog/pkg/errors"
	"github.com/opsledger/catalog/pkg/logger"
)

// TypeComponentRescore is the task type for post-update score cascades.
const TypeComponentRescore = "component:rescore"

// RescorePayload is the task payload for component rescore tasks.
type RescorePayload struct {
	PackageURL string `json:"package_url"`
}

// NewRescoreTask builds a rescore task for the given package.
func NewRescoreTask(packageURL string) (*asynq.Task, error) {
	payload, err := json.Marshal(RescorePayload{PackageURL: packageURL})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeComponentRescore, payload, asynq.MaxRetry(5)), nil
}

// Enqueuer schedules rescore tasks on the shared queue. It satisfies
// services.RescoreEnqueuer.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueRescore(ctx context.Context, packageURL string) error {
	task, err := NewRescoreTask(packageURL)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	logger.L().Info("rescore task enqueued",
		zap.String("package_url", packageURL), zap.String("task_id", info.ID))
	return nil
}

// RescoreTaskHandler runs the cascade for enqueued rescore tasks.
type RescoreTaskHandler struct {
	components repository.ComponentRepository
	cascader   *scoring.Cascader
}

func NewRescoreTaskHandler(components repository.ComponentRepository, cascader *scoring.Cascader) *RescoreTaskHandler {
	return &RescoreTaskHandler{components: components, cascader: cascader}
}

func (h *RescoreTaskHandler) HandleRescore(ctx context.Context, t *asynq.Task) error {
	var p RescorePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid rescore task payload", zap.Error(err))
		return err
	}

	component, err := h.components.Get(ctx, p.PackageURL)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			// the component was deleted before the task ran; its score
			// rows are gone with it
			logger.L().Info("component gone before rescore, dropping task",
				zap.String("package_url", p.PackageURL))
			return nil
		}
		return err
	}

	return h.cascader.Rescore(ctx, component)
}
