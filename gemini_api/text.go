package gemini_api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"pixel_forge/entities"
)

// PayloadShape is how the system instruction travels in a text request.
type PayloadShape int

const (
	// PayloadMerged prepends the system instruction to the user prompt.
	PayloadMerged PayloadShape = iota
	// PayloadSystemInstruction sends it as a root level systemInstruction.
	PayloadSystemInstruction
)

// TextCandidate is one attempt in the text fallback table.
type TextCandidate struct {
	Model      string
	APIVersion string
	Shape      PayloadShape
}

func (c TextCandidate) String() string {
	return c.Model + "@" + c.APIVersion
}

var textModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash-exp",
}

// DefaultTextCandidates tries every model on the stable API first and then on
// v1beta, model by model.
var DefaultTextCandidates = func() []TextCandidate {
	candidates := make([]TextCandidate, 0, len(textModels)*2)

	for _, model := range textModels {
		candidates = append(candidates,
			TextCandidate{Model: model, APIVersion: "v1", Shape: PayloadMerged},
			TextCandidate{Model: model, APIVersion: "v1beta", Shape: PayloadSystemInstruction},
		)
	}

	return candidates
}()

const systemInstructionTemperature = 1.4

// FailureClass decides whether the next candidate is tried.
type FailureClass int

const (
	// FailureNotFound means the candidate is unavailable: unknown model or
	// version, or a temporarily unavailable model.
	FailureNotFound FailureClass = iota
	// FailurePayloadRejected means the candidate does not accept this request shape.
	FailurePayloadRejected
	// FailureFatal stops the loop. No other candidate would succeed.
	FailureFatal
)

func (c FailureClass) String() string {
	switch c {
	case FailureNotFound:
		return "not found"
	case FailurePayloadRejected:
		return "payload rejected"
	default:
		return "fatal"
	}
}

// CandidateError is the failure of a single candidate.
type CandidateError struct {
	Candidate  TextCandidate
	Class      FailureClass
	StatusCode int
	Message    string
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("model %s (%s): %s", e.Candidate, e.Class, e.Message)
}

// ClassifyTextFailure maps an API error to a failure class.
func ClassifyTextFailure(statusCode int, message string) FailureClass {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "api key not valid"),
		statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusTooManyRequests:
		return FailureFatal
	case statusCode == http.StatusNotFound,
		statusCode == http.StatusServiceUnavailable,
		strings.Contains(lower, "not found"):
		return FailureNotFound
	case statusCode == http.StatusBadRequest,
		strings.Contains(message, "Unknown name"),
		strings.Contains(message, "Cannot find field"):
		return FailurePayloadRejected
	default:
		return FailureFatal
	}
}

func textRequest(shape PayloadShape, systemInstruction, userPrompt string) ([]*genai.Content, *genai.GenerateContentConfig) {
	if shape == PayloadMerged {
		return genai.Text(systemInstruction + "\n\nTask: " + userPrompt), nil
	}

	return genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       genai.Ptr[float32](systemInstructionTemperature),
	}
}

// CompleteText walks the candidate table until one candidate answers with
// text. NotFound and PayloadRejected failures move on to the next candidate;
// a Fatal failure ends the loop.
func (api *apiImpl) CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error) {
	if apiKey == "" {
		return "", &entities.ConfigurationError{Provider: entities.ProviderGemini}
	}

	var lastErr *CandidateError

	for _, candidate := range api.candidates {
		text, candidateErr, err := api.tryCandidate(ctx, apiKey, candidate, systemInstruction, userPrompt)
		if err != nil {
			return "", err
		}

		if candidateErr == nil {
			return text, nil
		}

		lastErr = candidateErr

		if candidateErr.Class == FailureFatal {
			return "", apiError(candidateErr.StatusCode, candidateErr.Error())
		}

		if candidateErr.Class != FailureNotFound {
			log.Printf("Text candidate %s failed: %s", candidate, candidateErr.Message)
		}
	}

	if lastErr == nil {
		return "", apiError(0, "all text models failed")
	}

	return "", apiError(lastErr.StatusCode, "all text models failed, last: "+lastErr.Error())
}

// tryCandidate returns a CandidateError for API level failures and a plain
// error for transport failures, which end the loop.
func (api *apiImpl) tryCandidate(
	ctx context.Context, apiKey string, candidate TextCandidate, systemInstruction, userPrompt string,
) (string, *CandidateError, error) {
	client, err := api.client(ctx, apiKey, candidate.APIVersion)
	if err != nil {
		return "", nil, err
	}

	contents, config := textRequest(candidate.Shape, systemInstruction, userPrompt)

	response, err := client.Models.GenerateContent(ctx, candidate.Model, contents, config)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, ctxErr
		}

		status, message := sdkFailure(err, apiKey)
		if status == 0 {
			log.Printf("Error with Gemini text request: %s", message)

			return "", nil, apiError(0, message)
		}

		return "", &CandidateError{
			Candidate:  candidate,
			Class:      ClassifyTextFailure(status, message),
			StatusCode: status,
			Message:    message,
		}, nil
	}

	text := firstText(response)
	if text == "" {
		return "", &CandidateError{
			Candidate:  candidate,
			Class:      FailurePayloadRejected,
			StatusCode: http.StatusOK,
			Message:    "returned no text",
		}, nil
	}

	return text, nil, nil
}

func firstText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}

	parts := response.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0] == nil {
		return ""
	}

	return strings.TrimSpace(parts[0].Text)
}
