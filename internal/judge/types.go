package judge

// StatusAccepted is the only sandbox status id that denotes a successful run
const StatusAccepted = 3

// statusWrongAnswer is reported when the sandbox compared the output itself
const statusWrongAnswer = 4

// SubmissionRequest is the sandbox wire format for one run. All text fields are base64.
type SubmissionRequest struct {
	SourceCode     string `json:"source_code"`
	LanguageID     string `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// SubmissionResponse is the sandbox result for one run. Output fields are base64 or null.
type SubmissionResponse struct {
	Token         string  `json:"token"`
	Status        *Status `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

// Status is the sandbox verdict
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Accepted reports whether the sandbox accepted the run
func (r *SubmissionResponse) Accepted() bool {
	return r.Status != nil && r.Status.ID == StatusAccepted
}
