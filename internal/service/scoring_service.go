package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
	"github.com/TreasureHunt-org/backend/internal/lock"
)

// Tally scores one challenge from a user's submission history: full points
// once any attempt succeeded, minus one for every failed attempt.
func Tally(points int, history []domain.Submission) (solved bool, tally int64) {
	for _, sub := range history {
		switch sub.Status {
		case domain.SubmissionStatusSuccess:
			solved = true
		case domain.SubmissionStatusFail:
			tally--
		}
	}
	if solved {
		tally += int64(points)
	}
	return solved, tally
}

// ScoringService computes per-challenge and per-hunt scores and grants GAME awards
type ScoringService struct {
	challengeRepo  domain.ChallengeRepository
	huntRepo       domain.HuntRepository
	submissionRepo domain.SubmissionRepository
	userRepo       domain.UserRepository
	awardRepo      domain.AwardRepository
	locker         lock.Locker
	metrics        *infrastructure.TelemetryMetrics
	tracer         trace.Tracer
	logger         *zap.Logger
	now            func() time.Time
}

// NewScoringService creates a new scoring service
func NewScoringService(
	challengeRepo domain.ChallengeRepository,
	huntRepo domain.HuntRepository,
	submissionRepo domain.SubmissionRepository,
	userRepo domain.UserRepository,
	awardRepo domain.AwardRepository,
	locker lock.Locker,
	metrics *infrastructure.TelemetryMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ScoringService {
	return &ScoringService{
		challengeRepo:  challengeRepo,
		huntRepo:       huntRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		awardRepo:      awardRepo,
		locker:         locker,
		metrics:        metrics,
		tracer:         tracer,
		logger:         logger,
		now:            time.Now,
	}
}

// ChallengeTally returns a user's solved flag and tally for one challenge
func (s *ScoringService) ChallengeTally(ctx context.Context, userID, challengeID uuid.UUID) (*domain.ChallengeState, error) {
	ctx, span := s.tracer.Start(ctx, "ScoringService.ChallengeTally")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("challenge.id", challengeID.String()),
	)

	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.challengeState(ctx, userID, challenge)
}

// HuntProgress returns the per-challenge state of a user across a hunt and the hunt total
func (s *ScoringService) HuntProgress(ctx context.Context, userID, huntID uuid.UUID) (*domain.ChallengeInfo, error) {
	ctx, span := s.tracer.Start(ctx, "ScoringService.HuntProgress")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("hunt.id", huntID.String()),
	)

	if _, err := s.huntRepo.FindByID(ctx, huntID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	challenges, err := s.challengeRepo.FindByHuntID(ctx, huntID)
	if err != nil {
		return nil, err
	}

	info := &domain.ChallengeInfo{Challenges: make([]domain.ChallengeState, 0, len(challenges))}
	for i := range challenges {
		state, err := s.challengeState(ctx, userID, &challenges[i])
		if err != nil {
			return nil, err
		}
		info.PointsCollected += state.Tally
		info.Challenges = append(info.Challenges, *state)
	}
	return info, nil
}

func (s *ScoringService) challengeState(ctx context.Context, userID uuid.UUID, challenge *domain.Challenge) (*domain.ChallengeState, error) {
	history, err := s.submissionRepo.FindByChallengeAndUser(ctx, challenge.ID, userID)
	if err != nil {
		return nil, err
	}
	solved, tally := Tally(challenge.Points, history)
	return &domain.ChallengeState{
		ChallengeID: challenge.ID,
		Title:       challenge.Title,
		Type:        challenge.Type,
		Solved:      solved,
		Tally:       tally,
	}, nil
}

// AwardGameChallenge grants a GAME challenge's points to a user at most once.
// Replays are no-ops that report Awarded=false.
func (s *ScoringService) AwardGameChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*domain.AwardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ScoringService.AwardGameChallenge")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("challenge.id", challengeID.String()),
	)

	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.Type != domain.ChallengeTypeGame {
		return nil, domain.ErrNotGameChallenge
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "award:"+userID.String()+":"+challengeID.String())
	if err != nil {
		s.logger.Error("Failed to acquire award lock",
			zap.String("user_id", userID.String()),
			zap.String("challenge_id", challengeID.String()),
			zap.Error(err),
		)
		return nil, domain.WrapError(domain.ErrInternalServer, "award is busy, try again")
	}
	defer release()

	history, err := s.submissionRepo.FindByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	if solved, _ := Tally(challenge.Points, history); solved {
		span.SetAttributes(attribute.Bool("award.granted", false))
		return &domain.AwardResponse{
			ChallengeID: challengeID,
			Awarded:     false,
			Points:      challenge.Points,
			Score:       user.Score,
		}, nil
	}

	award := &domain.Submission{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      domain.SubmissionStatusSuccess,
		Kind:        domain.SubmissionKindAward,
		Time:        s.now(),
	}
	granted, err := s.awardRepo.GrantOnce(context.WithoutCancel(ctx), award, challenge.Points)
	if err != nil {
		s.logger.Error("Failed to grant award",
			zap.String("user_id", userID.String()),
			zap.String("challenge_id", challengeID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	updated, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("award.granted", granted))
	if granted {
		s.metrics.PointsAwarded.Add(ctx, int64(challenge.Points),
			metric.WithAttributes(attribute.String("challenge.type", string(challenge.Type))),
		)
		s.logger.Info("Points awarded",
			zap.String("user_id", userID.String()),
			zap.String("challenge_id", challengeID.String()),
			zap.Int("points", challenge.Points),
			zap.Int64("score", updated.Score),
		)
	}

	return &domain.AwardResponse{
		ChallengeID: challengeID,
		Awarded:     granted,
		Points:      challenge.Points,
		Score:       updated.Score,
	}, nil
}

// UserScore compares the stored score counter with the value rebuilt from award history
func (s *ScoringService) UserScore(ctx context.Context, userID uuid.UUID) (*domain.UserScoreResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ScoringService.UserScore")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recomputed, err := s.recomputeScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	return scoreResponse(user, recomputed), nil
}

// ReconcileScore rewrites the stored score counter from award history.
// Points credited outside the award path are dropped.
func (s *ScoringService) ReconcileScore(ctx context.Context, userID uuid.UUID) (*domain.UserScoreResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ScoringService.ReconcileScore")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, recomputed, err := s.awardRepo.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if stored != recomputed {
		s.logger.Warn("User score drifted from award history, reconciled",
			zap.String("user_id", userID.String()),
			zap.Int64("stored", stored),
			zap.Int64("recomputed", recomputed),
		)
	}
	user.Score = recomputed
	return scoreResponse(user, recomputed), nil
}

// recomputeScore sums the points of every GAME challenge the user was awarded
func (s *ScoringService) recomputeScore(ctx context.Context, userID uuid.UUID) (int64, error) {
	awards, err := s.submissionRepo.FindAwardsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	seen := make(map[uuid.UUID]struct{}, len(awards))
	ids := make([]uuid.UUID, 0, len(awards))
	for _, a := range awards {
		if _, ok := seen[a.ChallengeID]; ok {
			continue
		}
		seen[a.ChallengeID] = struct{}{}
		ids = append(ids, a.ChallengeID)
	}

	challenges, err := s.challengeRepo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, c := range challenges {
		if c.Type == domain.ChallengeTypeGame {
			total += int64(c.Points)
		}
	}
	return total, nil
}

func scoreResponse(user *domain.User, recomputed int64) *domain.UserScoreResponse {
	return &domain.UserScoreResponse{
		UserID:     user.ID,
		Username:   user.Username,
		Score:      user.Score,
		Recomputed: recomputed,
		InSync:     user.Score == recomputed,
	}
}
