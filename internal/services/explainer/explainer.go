// Package explainer generates translations, learner explanations, and
// vocabulary keywords for batches of sentences via a JSON-only chat model.
package explainer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dutchlearn/internal/services"
	"dutchlearn/internal/services/openai"
)

const systemPrompt = "You are a Dutch language teacher. Always respond with valid JSON only."

const promptTemplate = `You are an expert Dutch language teacher helping students learn Dutch.

For each of the following Dutch sentences, provide:
1. A complete and accurate English translation of the sentence
2. A simple explanation in Dutch (1-2 sentences explaining the context and any grammar points)
3. An explanation in English (1-2 sentences about usage, context, or grammar notes - NOT a translation)
4. Extract 2-4 key vocabulary words with their meanings in both Dutch and English

IMPORTANT:
- The translation_en should be a direct, accurate translation of the Dutch sentence
- The explanation_en should provide context, usage notes, or grammar tips - NOT repeat the translation
- Keep explanations simple and helpful for language learners
- Focus on commonly used words and expressions
- For keywords, include the base/dictionary form of verbs and nouns

Respond ONLY with a valid JSON object in this exact format:
{
  "sentences": [
    {
      "translation_en": "Complete English translation here",
      "explanation_nl": "Dutch explanation here",
      "explanation_en": "English usage/context explanation here (not a translation)",
      "keywords": [
        {"word": "dutch_word", "meaning_nl": "Dutch meaning", "meaning_en": "English meaning"}
      ]
    }
  ]
}

Dutch sentences to explain:
%s`

// Keyword is one extracted vocabulary entry.
type Keyword struct {
	Word      string `json:"word"`
	MeaningNL string `json:"meaning_nl"`
	MeaningEN string `json:"meaning_en"`
}

// Explanation is the enrichment produced for one sentence.
type Explanation struct {
	TranslationEN string    `json:"translation_en"`
	ExplanationNL string    `json:"explanation_nl"`
	ExplanationEN string    `json:"explanation_en"`
	Keywords      []Keyword `json:"keywords"`
}

// Completer is the subset of the chat client the explainer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service generates explanations for sentence batches.
type Service struct {
	client Completer
}

// New constructs an explanation service on top of a chat completion client.
func New(client Completer) *Service {
	return &Service{client: client}
}

// ExplainBatch generates one Explanation per input text, order preserved.
// When the model returns fewer entries than inputs, the result is padded with
// empty explanations so callers can zip the two lists safely.
func (s *Service) ExplainBatch(ctx context.Context, texts []string) ([]Explanation, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	encoded, err := json.MarshalIndent(texts, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrExplanation, "explaining", "encode_batch", "encode sentence batch", err)
	}

	content, err := s.client.CompleteJSON(ctx, systemPrompt, fmt.Sprintf(promptTemplate, encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrExplanation, "explaining", "complete", "chat completion failed", err)
	}

	var parsed struct {
		Sentences []Explanation `json:"sentences"`
	}
	if err := openai.DecodeModelJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExplanation, "explaining", "parse", "parse model response", err)
	}

	explanations := parsed.Sentences
	if len(explanations) > len(texts) {
		explanations = explanations[:len(texts)]
	}
	for len(explanations) < len(texts) {
		explanations = append(explanations, Explanation{Keywords: []Keyword{}})
	}
	for i := range explanations {
		explanations[i].TranslationEN = strings.TrimSpace(explanations[i].TranslationEN)
		explanations[i].ExplanationNL = strings.TrimSpace(explanations[i].ExplanationNL)
		explanations[i].ExplanationEN = strings.TrimSpace(explanations[i].ExplanationEN)
		if explanations[i].Keywords == nil {
			explanations[i].Keywords = []Keyword{}
		}
	}
	return explanations, nil
}
