package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

func strPtr(s string) *string { return &s }

type fakeSandbox struct {
	calls atomic.Int32
	judge func(ctx context.Context, code string, lang domain.Language, tc domain.TestCase) domain.TestCaseResult
}

func (f *fakeSandbox) Judge(ctx context.Context, code string, lang domain.Language, tc domain.TestCase) domain.TestCaseResult {
	f.calls.Add(1)
	return f.judge(ctx, code, lang, tc)
}

// echoSandbox passes a case when the code equals its expected output
func echoSandbox() *fakeSandbox {
	return &fakeSandbox{judge: func(_ context.Context, code string, _ domain.Language, tc domain.TestCase) domain.TestCaseResult {
		out := code
		passed := strings.TrimSpace(out) == strings.TrimSpace(tc.ExpectedOutput)
		class := domain.ResultAccepted
		if !passed {
			class = domain.ResultWrongAnswer
		}
		return domain.TestCaseResult{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   &out,
			Passed:         passed,
			Class:          class,
		}
	}}
}

type fakeChallengeRepo struct {
	challenges map[uuid.UUID]domain.Challenge
}

func newFakeChallengeRepo(challenges ...domain.Challenge) *fakeChallengeRepo {
	r := &fakeChallengeRepo{challenges: make(map[uuid.UUID]domain.Challenge)}
	for _, c := range challenges {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *fakeChallengeRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Challenge, error) {
	c, ok := r.challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	c.TestCases = nil
	return &c, nil
}

func (r *fakeChallengeRepo) FindByIDWithTestCases(_ context.Context, id uuid.UUID) (*domain.Challenge, error) {
	c, ok := r.challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	return &c, nil
}

func (r *fakeChallengeRepo) FindByHuntID(_ context.Context, huntID uuid.UUID) ([]domain.Challenge, error) {
	var out []domain.Challenge
	for _, c := range r.challenges {
		if c.HuntID == huntID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeChallengeRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Challenge, error) {
	var out []domain.Challenge
	for _, id := range ids {
		if c, ok := r.challenges[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeHuntRepo struct {
	hunts map[uuid.UUID]domain.Hunt
}

func (r *fakeHuntRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Hunt, error) {
	h, ok := r.hunts[id]
	if !ok {
		return nil, domain.ErrHuntNotFound
	}
	return &h, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) setScore(id uuid.UUID, score int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Score = score
	return nil
}

func (r *fakeUserRepo) score(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Score
}

type fakeSubmissionRepo struct {
	mu        sync.Mutex
	subs      []domain.Submission
	createErr error
	lastQuery domain.SubmissionFilter
	listItems []domain.SubmissionListItem
	listTotal int64
}

func (r *fakeSubmissionRepo) Create(_ context.Context, s *domain.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, *s)
	return nil
}

func (r *fakeSubmissionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, domain.ErrSubmissionNotFound
}

func (r *fakeSubmissionRepo) FindByChallengeAndUser(_ context.Context, challengeID, userID uuid.UUID) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, s := range r.subs {
		if s.ChallengeID == challengeID && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) FindAwardsByUser(_ context.Context, userID uuid.UUID) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, s := range r.subs {
		if s.UserID == userID && s.Kind == domain.SubmissionKindAward && s.IsSuccess() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) List(_ context.Context, filter domain.SubmissionFilter) ([]domain.SubmissionListItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = filter
	return r.listItems, r.listTotal, nil
}

func (r *fakeSubmissionRepo) count(challengeID, userID uuid.UUID, status domain.SubmissionStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subs {
		if s.ChallengeID == challengeID && s.UserID == userID && s.Status == status {
			n++
		}
	}
	return n
}

// fakeAwardRepo mirrors the transactional grant against the fake user and submission stores
type fakeAwardRepo struct {
	mu         sync.Mutex
	users      *fakeUserRepo
	subs       *fakeSubmissionRepo
	challenges *fakeChallengeRepo
	calls      atomic.Int32
}

func (r *fakeAwardRepo) GrantOnce(ctx context.Context, award *domain.Submission, points int) (bool, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.FindByID(ctx, award.UserID)
	if err != nil {
		return false, err
	}
	if r.subs.count(award.ChallengeID, award.UserID, domain.SubmissionStatusSuccess) > 0 {
		return false, nil
	}
	if err := r.users.setScore(user.ID, user.Score+int64(points)); err != nil {
		return false, err
	}
	return true, r.subs.Create(ctx, award)
}

func (r *fakeAwardRepo) Reconcile(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	awards, err := r.subs.FindAwardsByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[uuid.UUID]bool)
	var recomputed int64
	for _, a := range awards {
		c, ok := r.challenges.challenges[a.ChallengeID]
		if !ok || seen[c.ID] || c.Type != domain.ChallengeTypeGame {
			continue
		}
		seen[c.ID] = true
		recomputed += int64(c.Points)
	}
	if err := r.users.setScore(userID, recomputed); err != nil {
		return 0, 0, err
	}
	return user.Score, recomputed, nil
}
