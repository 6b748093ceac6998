package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SubmissionService handles code submissions: evaluation and recording
type SubmissionService struct {
	challengeRepo  domain.ChallengeRepository
	submissionRepo domain.SubmissionRepository
	userRepo       domain.UserRepository
	evaluator      *Evaluator
	metrics        *infrastructure.TelemetryMetrics
	tracer         trace.Tracer
	logger         *zap.Logger
	now            func() time.Time
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	challengeRepo domain.ChallengeRepository,
	submissionRepo domain.SubmissionRepository,
	userRepo domain.UserRepository,
	evaluator *Evaluator,
	metrics *infrastructure.TelemetryMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		challengeRepo:  challengeRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		evaluator:      evaluator,
		metrics:        metrics,
		tracer:         tracer,
		logger:         logger,
		now:            time.Now,
	}
}

// Preview evaluates a solution without recording it
func (s *SubmissionService) Preview(ctx context.Context, challengeID uuid.UUID, req *domain.SubmitSolutionRequest) (*domain.SubmitSolutionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.Preview")
	defer span.End()

	span.SetAttributes(attribute.String("challenge.id", challengeID.String()))

	challenge, err := s.challengeRepo.FindByIDWithTestCases(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	eval, err := s.evaluator.Evaluate(ctx, challenge, req.Code, req.Language)
	if err != nil {
		return nil, err
	}

	resp := domain.NewSubmitSolutionResponse(challengeID, eval)
	return &resp, nil
}

// Submit evaluates a solution and records the attempt, pass or fail
func (s *SubmissionService) Submit(ctx context.Context, userID, challengeID uuid.UUID, req *domain.SubmitSolutionRequest) (*domain.SubmitSolutionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("challenge.id", challengeID.String()),
	)

	challenge, err := s.challengeRepo.FindByIDWithTestCases(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	eval, err := s.evaluator.Evaluate(ctx, challenge, req.Code, req.Language)
	if err != nil {
		return nil, err
	}

	// the attempt is recorded even if the client has gone away
	submission, err := s.Record(context.WithoutCancel(ctx), userID, challengeID, req.Code, eval)
	if err != nil {
		return nil, err
	}

	resp := domain.NewSubmitSolutionResponse(challengeID, eval)
	subResp := submission.ToResponse()
	resp.Submission = &subResp
	return &resp, nil
}

// Record persists an evaluated attempt together with its per-case results
func (s *SubmissionService) Record(ctx context.Context, userID, challengeID uuid.UUID, code string, eval *domain.Evaluation) (*domain.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.Record")
	defer span.End()

	results, err := json.Marshal(eval.Results)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInternalServer, "could not encode test case results")
	}

	submission := &domain.Submission{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserID:      userID,
		Code:        code,
		Language:    eval.Language.Name,
		Status:      domain.StatusFor(eval.Passed),
		Kind:        domain.SubmissionKindEvaluation,
		Results:     datatypes.JSON(results),
		Time:        s.now(),
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		s.logger.Error("Failed to record submission",
			zap.String("user_id", userID.String()),
			zap.String("challenge_id", challengeID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("submission.id", submission.ID.String()),
		attribute.String("submission.status", string(submission.Status)),
	)
	s.metrics.SubmissionsRecorded.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(submission.Status))),
	)
	s.logger.Info("Submission recorded",
		zap.String("submission_id", submission.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("challenge_id", challengeID.String()),
		zap.String("status", string(submission.Status)),
	)

	return submission, nil
}

// GetSubmission returns one submission with its stored per-case results
func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*domain.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.GetSubmission")
	defer span.End()

	span.SetAttributes(attribute.String("submission.id", id.String()))

	submission, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := submission.ToResponse()
	return &resp, nil
}

// ListSubmissions returns a page of submissions, optionally filtered by hunt and hunter name
func (s *SubmissionService) ListSubmissions(ctx context.Context, filter domain.SubmissionFilter) (*domain.SubmissionListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SubmissionService.ListSubmissions")
	defer span.End()

	if filter.Page < 0 {
		filter.Page = 0
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	items, total, err := s.submissionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.SubmissionListItem{}
	}

	pageSize := int64(filter.PageSize)
	return &domain.SubmissionListResponse{
		Success:    true,
		TotalPages: (total + pageSize - 1) / pageSize,
		Data:       items,
	}, nil
}
