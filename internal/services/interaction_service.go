package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/data/graph"
	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/apierr"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type RecordInteractionInput struct {
	UserID     uuid.UUID
	GameID     int64
	Type       string
	OccurredAt time.Time
}

type InteractionService interface {
	Record(ctx context.Context, in RecordInteractionInput) (*types.Interaction, error)
}

type interactionService struct {
	log          *logger.Logger
	metrics      *observability.Metrics
	users        repos.UserRepo
	games        repos.GameRepo
	interactions repos.InteractionRepo
	analyzer     BehaviorAnalyzer
	limiter      DailySeenLimiter
	graph        graph.Querier
	now          func() time.Time
}

// NewInteractionService wires the write path. graphQ may be nil.
func NewInteractionService(
	baseLog *logger.Logger,
	metrics *observability.Metrics,
	users repos.UserRepo,
	games repos.GameRepo,
	interactions repos.InteractionRepo,
	analyzer BehaviorAnalyzer,
	limiter DailySeenLimiter,
	graphQ graph.Querier,
) InteractionService {
	return &interactionService{
		log:          baseLog.With("service", "InteractionService"),
		metrics:      metrics,
		users:        users,
		games:        games,
		interactions: interactions,
		analyzer:     analyzer,
		limiter:      limiter,
		graph:        graphQ,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *interactionService) Record(ctx context.Context, in RecordInteractionInput) (*types.Interaction, error) {
	const op = "interaction.record"
	kind, ok := types.ParseInteractionType(in.Type)
	if !ok {
		return nil, apierr.Input(op, "unknown interaction type %q", in.Type)
	}
	if in.UserID == uuid.Nil {
		return nil, apierr.Input(op, "user id is required")
	}
	if in.GameID <= 0 {
		return nil, apierr.Input(op, "game id must be positive")
	}

	dbc := dbctx.New(ctx)
	exists, err := s.users.Exists(dbc, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, apierr.NotFound(op, "user %s not found", in.UserID)
	}
	g, err := s.games.GetByID(dbc, in.GameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if g == nil {
		return nil, apierr.NotFound(op, "game %d not found", in.GameID)
	}

	at := in.OccurredAt
	if at.IsZero() {
		at = s.now()
	}
	row := &types.Interaction{
		UserID:           in.UserID,
		GameID:           in.GameID,
		Type:             kind,
		InteractionScore: kind.DefaultScore(),
		InteractedAt:     at.UTC(),
	}
	if err := s.interactions.Upsert(dbc, row); err != nil {
		return nil, fmt.Errorf("upsert interaction: %w", err)
	}
	if err := s.analyzer.IncrementInteractionCounter(ctx, in.UserID, row.InteractedAt); err != nil {
		return nil, err
	}
	if _, err := s.limiter.MarkAsSeen(ctx, in.UserID, in.GameID); err != nil {
		return nil, err
	}
	s.metrics.InteractionRecorded(string(kind))

	if s.graph != nil {
		if err := graph.UpsertUserInteraction(ctx, s.graph, s.log, row); err != nil {
			s.metrics.DependencyFailure("graph")
		}
	}

	s.log.Debug("interaction recorded",
		"user_id", in.UserID.String(),
		"game_id", in.GameID,
		"type", string(kind),
	)
	return row, nil
}
