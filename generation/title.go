package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pixel_forge/entities"
)

const titleSystemInstruction = "You are a filename generator."

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func titlePrompt(prompt string) string {
	return fmt.Sprintf("Create a very short, filename-safe title (1-3 words, using underscores instead of spaces, "+
		"no special chars, no file extension) that summarizes this image description: \"%s\". Output ONLY the summary.", prompt)
}

// SanitizeFilename keeps letters, digits and underscores.
func SanitizeFilename(title string) string {
	return unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(title), "")
}

// FallbackFilename is used whenever no title could be generated.
func FallbackFilename(millis int64) string {
	return fmt.Sprintf("PixelForge-%d", millis)
}

// GenerateTitle asks the text API for a short filename for prompt. Any
// failure, including an answer that sanitises to nothing, is a SubStepError.
func GenerateTitle(ctx context.Context, api TextAPI, apiKey, prompt string) (string, error) {
	if api == nil {
		return "", &entities.SubStepError{Step: "title generation", Err: fmt.Errorf("no text API configured")}
	}

	title, err := api.CompleteText(ctx, apiKey, titleSystemInstruction, titlePrompt(prompt))
	if err != nil {
		return "", &entities.SubStepError{Step: "title generation", Err: err}
	}

	title = SanitizeFilename(title)
	if title == "" {
		return "", &entities.SubStepError{Step: "title generation", Err: fmt.Errorf("empty title")}
	}

	return title, nil
}
