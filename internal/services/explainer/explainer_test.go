package explainer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dutchlearn/internal/services"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.response, f.err
}

func TestExplainBatchParsesInOrder(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"sentences": [
			{
				"translation_en": "Hello, how are you?",
				"explanation_nl": "Een begroeting.",
				"explanation_en": "A greeting.",
				"keywords": [{"word": "hoe", "meaning_nl": "op welke manier", "meaning_en": "how"}]
			},
			{
				"translation_en": "I am doing well.",
				"explanation_nl": "Een antwoord.",
				"explanation_en": "A reply.",
				"keywords": []
			}
		]
	}`}
	service := New(fake)

	explanations, err := service.ExplainBatch(context.Background(), []string{"Hallo, hoe gaat het?", "Het gaat goed."})
	if err != nil {
		t.Fatalf("ExplainBatch: %v", err)
	}
	if len(explanations) != 2 {
		t.Fatalf("got %d explanations, want 2", len(explanations))
	}
	if explanations[0].TranslationEN != "Hello, how are you?" {
		t.Fatalf("unexpected first translation %q", explanations[0].TranslationEN)
	}
	if len(explanations[0].Keywords) != 1 || explanations[0].Keywords[0].Word != "hoe" {
		t.Fatalf("unexpected keywords: %+v", explanations[0].Keywords)
	}
	if explanations[1].Keywords == nil {
		t.Fatal("keywords should be an empty slice, not nil")
	}

	if len(fake.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(fake.prompts))
	}
	if !strings.Contains(fake.prompts[0], "Hallo, hoe gaat het?") {
		t.Fatalf("prompt missing sentence text:\n%s", fake.prompts[0])
	}
}

func TestExplainBatchPadsShortResponses(t *testing.T) {
	fake := &fakeCompleter{response: `{"sentences": [{"translation_en": "One."}]}`}
	service := New(fake)

	explanations, err := service.ExplainBatch(context.Background(), []string{"Een.", "Twee.", "Drie."})
	if err != nil {
		t.Fatalf("ExplainBatch: %v", err)
	}
	if len(explanations) != 3 {
		t.Fatalf("got %d explanations, want 3", len(explanations))
	}
	if explanations[0].TranslationEN != "One." {
		t.Fatalf("first explanation lost: %+v", explanations[0])
	}
	for i, entry := range explanations[1:] {
		if entry.TranslationEN != "" || entry.Keywords == nil || len(entry.Keywords) != 0 {
			t.Fatalf("padded entry %d not empty: %+v", i+1, entry)
		}
	}
}

func TestExplainBatchTruncatesLongResponses(t *testing.T) {
	fake := &fakeCompleter{response: `{"sentences": [
		{"translation_en": "One."},
		{"translation_en": "Two."},
		{"translation_en": "Extra."}
	]}`}
	service := New(fake)

	explanations, err := service.ExplainBatch(context.Background(), []string{"Een.", "Twee."})
	if err != nil {
		t.Fatalf("ExplainBatch: %v", err)
	}
	if len(explanations) != 2 {
		t.Fatalf("got %d explanations, want 2", len(explanations))
	}
}

func TestExplainBatchWrapsClientErrors(t *testing.T) {
	service := New(&fakeCompleter{err: errors.New("boom")})

	if _, err := service.ExplainBatch(context.Background(), []string{"Een."}); !errors.Is(err, services.ErrExplanation) {
		t.Fatalf("error %v does not wrap ErrExplanation", err)
	}
}

func TestExplainBatchWrapsParseErrors(t *testing.T) {
	service := New(&fakeCompleter{response: "not json"})

	if _, err := service.ExplainBatch(context.Background(), []string{"Een."}); !errors.Is(err, services.ErrExplanation) {
		t.Fatalf("error %v does not wrap ErrExplanation", err)
	}
}

func TestExplainBatchEmptyInput(t *testing.T) {
	fake := &fakeCompleter{}
	service := New(fake)

	explanations, err := service.ExplainBatch(context.Background(), nil)
	if err != nil || explanations != nil {
		t.Fatalf("empty input: got %v, %v", explanations, err)
	}
	if len(fake.prompts) != 0 {
		t.Fatal("expected no completion call for empty input")
	}
}
