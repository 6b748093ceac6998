// Package judge is the client for the external code-execution sandbox
// (a Judge0-compatible HTTP API).
package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
)

const maxResponseBytes = 4 << 20

// Client runs one submission against one test case in the sandbox
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiHost    string
	timeout    time.Duration
	tracer     trace.Tracer
	metrics    *infrastructure.TelemetryMetrics
	logger     *zap.Logger
}

// NewClient creates a new sandbox client
func NewClient(cfg *infrastructure.JudgeConfig, tracer trace.Tracer, metrics *infrastructure.TelemetryMetrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiHost:    cfg.APIHost,
		timeout:    cfg.Timeout,
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Judge runs sourceCode with the test case input and compares the output.
// It never fails: transport problems become a failed result for this case only.
func (c *Client) Judge(ctx context.Context, sourceCode string, lang domain.Language, tc domain.TestCase) domain.TestCaseResult {
	ctx, span := c.tracer.Start(ctx, "judge.Client.Judge",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("language", lang.Name),
			attribute.Int("language.sandbox_id", lang.SandboxID),
			attribute.Int("test_case.order", tc.Order),
		),
	)
	defer span.End()

	result := domain.TestCaseResult{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	}

	start := time.Now()
	resp, err := c.submit(ctx, sourceCode, lang, tc)
	duration := time.Since(start)

	if err != nil {
		result.Class = domain.ResultSandboxError
		if errors.Is(err, context.DeadlineExceeded) {
			result.Class = domain.ResultExternalTimeout
			err = fmt.Errorf("sandbox did not answer within %s", c.timeout)
		}
		msg := "Error processing submission: " + err.Error()
		result.Error = &msg

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, result.Class, duration)
		c.logger.Warn("Sandbox call failed",
			zap.Int("language_id", lang.SandboxID),
			zap.Int("test_case_order", tc.Order),
			zap.String("classification", string(result.Class)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return result
	}

	classify(resp, &result)

	span.SetAttributes(
		attribute.String("classification", string(result.Class)),
		attribute.Bool("passed", result.Passed),
	)
	c.record(ctx, result.Class, duration)
	infrastructure.LogSandboxCall(c.logger, lang.SandboxID, len(sourceCode), statusDescription(resp), duration)

	return result
}

func (c *Client) submit(ctx context.Context, sourceCode string, lang domain.Language, tc domain.TestCase) (*SubmissionResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(SubmissionRequest{
		SourceCode:     encode(sourceCode),
		LanguageID:     strconv.Itoa(lang.SandboxID),
		Stdin:          encode(tc.Input),
		ExpectedOutput: encode(tc.ExpectedOutput),
	})
	if err != nil {
		return nil, fmt.Errorf("could not encode request: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=true&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("sandbox returned HTTP %d", httpResp.StatusCode)
	}

	var resp SubmissionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return &resp, nil
}

// classify fills in the verdict for a sandbox response
func classify(resp *SubmissionResponse, result *domain.TestCaseResult) {
	if resp.Stdout != nil {
		out := decode(*resp.Stdout)
		result.ActualOutput = &out
	}

	if resp.Status == nil {
		msg := "Unknown error"
		result.Error = &msg
		result.Class = domain.ResultSandboxError
		return
	}

	if !resp.Accepted() {
		msg := errorMessage(resp)
		result.Error = &msg
		result.Class = domain.ResultRejected
		if resp.Status.ID == statusWrongAnswer {
			result.Class = domain.ResultWrongAnswer
		}
		return
	}

	var actual string
	if result.ActualOutput != nil {
		actual = *result.ActualOutput
	}
	result.Passed = strings.TrimSpace(actual) == strings.TrimSpace(result.ExpectedOutput)
	if result.Passed {
		result.Class = domain.ResultAccepted
	} else {
		result.Class = domain.ResultWrongAnswer
	}
}

// errorMessage joins the status description with any compile output and stderr
func errorMessage(resp *SubmissionResponse) string {
	parts := []string{resp.Status.Description}
	if resp.CompileOutput != nil && *resp.CompileOutput != "" {
		parts = append(parts, decode(*resp.CompileOutput))
	}
	if resp.Stderr != nil && *resp.Stderr != "" {
		parts = append(parts, decode(*resp.Stderr))
	}
	return strings.Join(parts, ": ")
}

func statusDescription(resp *SubmissionResponse) string {
	if resp.Status == nil {
		return "unknown"
	}
	return resp.Status.Description
}

func (c *Client) record(ctx context.Context, class domain.ResultClass, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("classification", string(class)))
	c.metrics.SandboxCallDuration.Record(ctx, duration.Seconds(), attrs)
	if class == domain.ResultSandboxError || class == domain.ResultExternalTimeout {
		c.metrics.SandboxCallFailures.Add(ctx, 1, attrs)
	}
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// decode returns the base64-decoded value, or the raw value when it is not valid base64.
// The sandbox wraps long base64 payloads with newlines.
func decode(s string) string {
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(s)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return s
	}
	return string(data)
}
