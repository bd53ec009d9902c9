package app

import (
	"context"

	"github.com/hovden/spanlane/internal/domain"
)

// Repository is the persistence port for activities. Implementations own
// durability; the service owns validation and domain rules.
type Repository interface {
	CreateActivity(context.Context, domain.Activity) error
	UpdateActivity(context.Context, domain.Activity) error
	GetActivity(context.Context, string) (domain.Activity, error)
	ListActivities(context.Context, bool) ([]domain.Activity, error)
	DeleteActivity(context.Context, string) error
}
