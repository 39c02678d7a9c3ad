// Package popularity recomputes the ranking score of hospitals, NGOs and
// campaigns from their stored counters. Recomputation only reads counters
// and writes popularity_score, so it is safe to run any number of times in
// any order.
package popularity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/types"
)

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log}
}

// NewRecomputeTask builds the task that recomputes one entity's score.
// trigger identifies the change that asked for it.
func NewRecomputeTask(kind types.EntityKind, entityID, trigger string) (*models.Task, error) {
	return scheduler.NewTask(types.TaskPopularityRecompute,
		types.PopularityDedupKey(kind, entityID, trigger),
		types.PopularityArgs{Kind: kind, EntityID: entityID})
}

// Recompute stores a fresh score for the entity and returns it.
func (s *Service) Recompute(ctx context.Context, kind types.EntityKind, id string) (float64, error) {
	var score float64
	switch kind {
	case types.EntityKindHospital, types.EntityKindNGO:
		o, err := s.store.UpdateOrganization(ctx, id, func(o *models.Organization) error {
			next := ScoreOrganization(o)
			if next == o.PopularityScore {
				return store.ErrNoChange
			}
			o.PopularityScore = next
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("failed to score organization %s: %w", id, err)
		}
		score = o.PopularityScore
	case types.EntityKindCampaign:
		c, err := s.store.UpdateCampaign(ctx, id, func(c *models.Campaign) error {
			next := ScoreCampaign(c)
			if next == c.PopularityScore {
				return store.ErrNoChange
			}
			c.PopularityScore = next
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("failed to score campaign %s: %w", id, err)
		}
		score = c.PopularityScore
	default:
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	logctx.FromCtx(ctx, s.log).Debugw("popularity recomputed", "kind", kind, "entity_id", id, "score", score)
	return score, nil
}

// HandleRecompute is the scheduler handler for types.TaskPopularityRecompute.
func (s *Service) HandleRecompute(ctx context.Context, task *models.Task) error {
	args, err := scheduler.DecodeArgs[types.PopularityArgs](task)
	if err != nil {
		return err
	}
	_, err = s.Recompute(ctx, args.Kind, args.EntityID)
	return err
}
