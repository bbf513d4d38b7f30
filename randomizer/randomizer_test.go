package randomizer

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"pixel_forge/entities"
)

type fakeText struct {
	text   string
	err    error
	system string
	calls  int
}

func (f *fakeText) CompleteText(_ context.Context, _, systemInstruction, _ string) (string, error) {
	f.calls++
	f.system = systemInstruction

	return f.text, f.err
}

type credentialMap map[string]string

func (c credentialMap) Credential(_ context.Context, provider string) (string, error) {
	return c[provider], nil
}

func newRandomizer(t *testing.T, text *fakeText, creds credentialMap) Randomizer {
	t.Helper()

	r, err := New(Config{
		TextAPI:      text,
		TextProvider: entities.ProviderGemini,
		Credentials:  creds,
		Rand:         rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return r
}

func contains(options []entities.Option, value string) bool {
	for _, option := range options {
		if option.Value == value {
			return true
		}
	}

	return false
}

func TestStyleOnlyKeepsPromptAndSkipsTextAPI(t *testing.T) {
	text := &fakeText{text: "unused"}
	r := newRandomizer(t, text, credentialMap{})

	current := entities.GenerationOptions{Prompt: "my prompt", Variations: 2}

	out, err := r.Randomize(context.Background(), ModeStyleOnly, "", current)
	if err != nil {
		t.Fatalf("Randomize: %v", err)
	}

	if out.Prompt != "my prompt" || out.Variations != 2 {
		t.Fatalf("unrelated fields changed: %+v", out)
	}

	if !contains(entities.Styles, out.Style) || !contains(entities.Ratios, out.Ratio) ||
		!contains(entities.Lighting, out.Lighting) || !contains(entities.Moods, out.Mood) {
		t.Fatalf("values outside the modifier tables: %+v", out)
	}

	if text.calls != 0 {
		t.Fatalf("text API called %d times", text.calls)
	}
}

func TestPromptOnlyUsesCategoryInstruction(t *testing.T) {
	text := &fakeText{text: "A lantern-lit harbor."}
	r := newRandomizer(t, text, credentialMap{entities.ProviderGemini: "key"})

	current := entities.GenerationOptions{Prompt: "old", Style: ", oil painting, textured"}

	out, err := r.Randomize(context.Background(), ModePromptOnly, "LOCATION", current)
	if err != nil {
		t.Fatalf("Randomize: %v", err)
	}

	if out.Prompt != "A lantern-lit harbor." || out.Style != current.Style {
		t.Fatalf("out = %+v", out)
	}

	if !strings.Contains(text.system, "unique LOCATION or SETTING") {
		t.Fatalf("system instruction lacks the category focus: %q", text.system)
	}
}

func TestTextFailureUsesFallbackPrompt(t *testing.T) {
	text := &fakeText{err: errors.New("all text models failed")}
	r := newRandomizer(t, text, credentialMap{entities.ProviderGemini: "key"})

	out, err := r.Randomize(context.Background(), ModeEverything, CategoryAny, entities.GenerationOptions{})
	if err != nil {
		t.Fatalf("Randomize: %v", err)
	}

	if out.Prompt != FallbackPrompt {
		t.Fatalf("prompt = %q", out.Prompt)
	}
}

func TestPromptModesNeedCredential(t *testing.T) {
	r := newRandomizer(t, &fakeText{}, credentialMap{})

	_, err := r.Randomize(context.Background(), ModeEverything, CategoryAny, entities.GenerationOptions{})
	if !errors.Is(err, &entities.ConfigurationError{}) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRejectsUnknownModeAndCategory(t *testing.T) {
	r := newRandomizer(t, &fakeText{}, credentialMap{entities.ProviderGemini: "key"})

	if _, err := r.Randomize(context.Background(), "chaos", CategoryAny, entities.GenerationOptions{}); !errors.Is(err, &entities.ValidationError{}) {
		t.Fatalf("mode error = %v", err)
	}

	if _, err := r.Randomize(context.Background(), ModeStyleOnly, "PLANET", entities.GenerationOptions{}); !errors.Is(err, &entities.ValidationError{}) {
		t.Fatalf("category error = %v", err)
	}
}

func TestSystemInstructionFallsBackToAny(t *testing.T) {
	if !strings.Contains(SystemInstruction("ANY"), "Randomly select a new subject") {
		t.Fatal("ANY instruction missing")
	}

	if SystemInstruction("nope") != SystemInstruction(CategoryAny) {
		t.Fatal("unknown category should use the ANY instruction")
	}
}
