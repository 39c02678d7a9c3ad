// Package rating records one rating per user and entity and keeps the
// entity's average and count in step with the stored ratings.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/popularity"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEntityNotFound = errors.New("rated entity not found")
	ErrInvalidRequest = errors.New("invalid rating request")
)

var validate = validator.New()

// Identity is the acting user as resolved by the caller.
type Identity struct {
	UserID string
}

type RateRequest struct {
	EntityKind types.EntityKind `json:"entity_kind" binding:"required" validate:"required,oneof=hospital ngo campaign"`
	EntityID   string           `json:"entity_id" binding:"required" validate:"required"`
	Rating     int              `json:"rating" validate:"min=1,max=5"`
	Review     *string          `json:"review" validate:"omitempty,max=2000"`
}

type RateResult struct {
	RatingID      string  `json:"rating_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// Rate upserts the user's rating and refreshes the entity's average and
// count under the entity lock, so concurrent raters cannot lose updates.
func (s *Service) Rate(ctx context.Context, id Identity, req RateRequest) (*RateResult, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, req.Rating)
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidRequest)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	r := &models.Rating{
		ID:         tool.GenerateUUIDV7(),
		EntityKind: req.EntityKind,
		EntityID:   req.EntityID,
		UserID:     id.UserID,
		Rating:     req.Rating,
		Review:     req.Review,
	}
	var summary store.RatingSummary
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		apply := func(avg *float64, count *int64) error {
			if err := tx.UpsertRating(ctx, r); err != nil {
				return err
			}
			var err error
			summary, err = tx.GetRatingSummary(ctx, req.EntityKind, req.EntityID)
			if err != nil {
				return err
			}
			*avg, *count = summary.Average, summary.Count
			return nil
		}
		var err error
		switch req.EntityKind {
		case types.EntityKindHospital, types.EntityKindNGO:
			_, err = tx.UpdateOrganization(ctx, req.EntityID, func(o *models.Organization) error {
				if o.EntityKind() != req.EntityKind {
					return fmt.Errorf("%w: %s is a %s", ErrEntityNotFound, o.ID, o.EntityKind())
				}
				return apply(&o.AverageRating, &o.RatingCount)
			})
		case types.EntityKindCampaign:
			_, err = tx.UpdateCampaign(ctx, req.EntityID, func(c *models.Campaign) error {
				return apply(&c.AverageRating, &c.RatingCount)
			})
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %s %s", ErrEntityNotFound, req.EntityKind, req.EntityID)
			}
			return err
		}
		task, err := popularity.NewRecomputeTask(req.EntityKind, req.EntityID, "rating:"+tool.GenerateULID(s.now()))
		if err != nil {
			return err
		}
		return tx.EnqueueTasks(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rate %s %s: %w", req.EntityKind, req.EntityID, err)
	}

	logctx.FromCtx(ctx, s.log).Infow("rating recorded", "entity_kind", req.EntityKind, "entity_id", req.EntityID,
		"user_id", id.UserID, "rating", req.Rating, "average", summary.Average, "count", summary.Count)
	return &RateResult{RatingID: r.ID, AverageRating: summary.Average, RatingCount: summary.Count}, nil
}
