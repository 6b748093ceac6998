package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// Sandbox judges one submission against one test case. Implementations
// report transport failures inside the result and never fail the call.
type Sandbox interface {
	Judge(ctx context.Context, sourceCode string, lang domain.Language, tc domain.TestCase) domain.TestCaseResult
}

// Evaluator runs a submission against every test case of a challenge
type Evaluator struct {
	sandbox        Sandbox
	languages      domain.LanguageResolver
	maxConcurrency int
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewEvaluator creates a new evaluator. With maxConcurrency <= 1 test cases
// are judged one after another.
func NewEvaluator(
	sandbox Sandbox,
	languages domain.LanguageResolver,
	maxConcurrency int,
	tracer trace.Tracer,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		sandbox:        sandbox,
		languages:      languages,
		maxConcurrency: maxConcurrency,
		tracer:         tracer,
		logger:         logger,
	}
}

// Validate checks the submission against the challenge before anything is sent to the sandbox
func (e *Evaluator) Validate(challenge *domain.Challenge, sourceCode, language string) (domain.Language, error) {
	if !challenge.Type.IsCodeJudged() {
		return domain.Language{}, domain.ErrNotCodeChallenge
	}
	if strings.TrimSpace(sourceCode) == "" {
		return domain.Language{}, domain.ErrEmptySourceCode
	}
	if strings.TrimSpace(language) == "" {
		return domain.Language{}, domain.ErrLanguageRequired
	}
	lang, ok := e.languages.Resolve(language)
	if !ok {
		return domain.Language{}, domain.ErrUnsupportedLanguage
	}
	if !challenge.AllowsLanguage(lang.Name) {
		return domain.Language{}, domain.ErrLanguageNotAllowed
	}
	if len(challenge.TestCases) == 0 {
		return domain.Language{}, domain.ErrNoTestCases
	}
	return lang, nil
}

// Evaluate judges sourceCode against the challenge's test cases in ascending order.
// Every test case is judged even after a failure, and the result list always
// has one entry per test case in test case order. Once started, evaluation is
// not cancelled by the caller.
func (e *Evaluator) Evaluate(ctx context.Context, challenge *domain.Challenge, sourceCode, language string) (*domain.Evaluation, error) {
	ctx, span := e.tracer.Start(ctx, "Evaluator.Evaluate")
	defer span.End()

	span.SetAttributes(
		attribute.String("challenge.id", challenge.ID.String()),
		attribute.String("language", language),
	)

	lang, err := e.Validate(challenge, sourceCode, language)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	cases := challenge.OrderedTestCases()
	results := make([]domain.TestCaseResult, len(cases))

	if e.maxConcurrency <= 1 {
		for i, tc := range cases {
			results[i] = e.sandbox.Judge(ctx, sourceCode, lang, tc)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.maxConcurrency)
		for i, tc := range cases {
			g.Go(func() error {
				results[i] = e.sandbox.Judge(ctx, sourceCode, lang, tc)
				return nil
			})
		}
		_ = g.Wait()
	}

	passed := domain.AllPassed(results)
	span.SetAttributes(
		attribute.Int("test_case.count", len(results)),
		attribute.Bool("passed", passed),
	)
	e.logger.Info("Submission evaluated",
		zap.String("challenge_id", challenge.ID.String()),
		zap.String("language", lang.Name),
		zap.Int("test_cases", len(results)),
		zap.Bool("passed", passed),
	)

	return &domain.Evaluation{
		Language: lang,
		Results:  results,
		Passed:   passed,
	}, nil
}
