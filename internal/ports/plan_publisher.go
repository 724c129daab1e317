package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Contract for announcing computed plans to downstream consumers.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, event domain.PlanComputed) error
}
