package domain

import "github.com/google/uuid"

// ResultClass classifies the outcome of one test case run
type ResultClass string

const (
	ResultAccepted        ResultClass = "ACCEPTED"
	ResultWrongAnswer     ResultClass = "WRONG_ANSWER"
	ResultRejected        ResultClass = "REJECTED"
	ResultSandboxError    ResultClass = "SANDBOX_ERROR"
	ResultExternalTimeout ResultClass = "EXTERNAL_TIMEOUT"
)

// TestCaseResult is the judged outcome of a submission against one test case
type TestCaseResult struct {
	Input          string      `json:"input"`
	ExpectedOutput string      `json:"expected_output"`
	ActualOutput   *string     `json:"actual_output"`
	Passed         bool        `json:"passed"`
	Error          *string     `json:"error"`
	Class          ResultClass `json:"classification"`
}

// Evaluation is the ordered per-case breakdown plus the overall verdict
type Evaluation struct {
	Language Language
	Results  []TestCaseResult
	Passed   bool
}

// AllPassed reports whether every result passed. An empty list never passes.
func AllPassed(results []TestCaseResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

const (
	MessageAllPassed  = "All test cases passed! You've completed the challenge."
	MessageSomeFailed = "Some test cases failed. Please check the results and try again."
)

// SubmitSolutionResponse is returned by the preview and submit endpoints
type SubmitSolutionResponse struct {
	ChallengeID     uuid.UUID           `json:"challenge_id"`
	Success         bool                `json:"success"`
	Message         string              `json:"message"`
	Submission      *SubmissionResponse `json:"submission,omitempty"`
	TestCaseResults []TestCaseResult    `json:"test_case_results"`
}

// NewSubmitSolutionResponse builds the response for an evaluation
func NewSubmitSolutionResponse(challengeID uuid.UUID, eval *Evaluation) SubmitSolutionResponse {
	message := MessageSomeFailed
	if eval.Passed {
		message = MessageAllPassed
	}
	return SubmitSolutionResponse{
		ChallengeID:     challengeID,
		Success:         eval.Passed,
		Message:         message,
		TestCaseResults: eval.Results,
	}
}

// ChallengeState is the per-challenge progress of a user inside a hunt
type ChallengeState struct {
	ChallengeID uuid.UUID     `json:"challenge_id"`
	Title       string        `json:"title"`
	Type        ChallengeType `json:"type"`
	Solved      bool          `json:"solved"`
	Tally       int64         `json:"tally"`
}

// ChallengeInfo is a user's progress across a hunt
type ChallengeInfo struct {
	PointsCollected int64            `json:"points_collected"`
	Challenges      []ChallengeState `json:"challenges"`
}

// AwardResponse reports the outcome of the GAME award path
type AwardResponse struct {
	ChallengeID uuid.UUID `json:"challenge_id"`
	Awarded     bool      `json:"awarded"`
	Points      int       `json:"points"`
	Score       int64     `json:"score"`
}
