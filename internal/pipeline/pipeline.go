// Package pipeline drives a project through its processing stages: audio
// extraction, transcription with diarization, speaker identification, and
// explanation generation. Stage transitions are persisted so interrupted or
// failed runs are visible in the project status.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dutchlearn/internal/config"
	"dutchlearn/internal/logging"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/services"
	"dutchlearn/internal/services/assemblyai"
	"dutchlearn/internal/services/explainer"
	"dutchlearn/internal/services/speakerid"
	"dutchlearn/internal/splitter"
)

// Extractor converts an uploaded media file into normalized mp3 audio.
type Extractor interface {
	Extract(ctx context.Context, inputPath, outputPath string) error
}

// Transcriber produces diarized utterances with word timestamps.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (assemblyai.Result, error)
}

// Identifier infers speaker identities from a labeled transcript.
type Identifier interface {
	Identify(ctx context.Context, transcript []speakerid.TranscriptEntry, projectName string) speakerid.Outcome
}

// Explainer enriches sentence batches with translations and keywords.
type Explainer interface {
	ExplainBatch(ctx context.Context, texts []string) ([]explainer.Explanation, error)
}

// Runner executes the processing pipeline for one project at a time.
type Runner struct {
	store       *projects.Store
	cfg         *config.Config
	extractor   Extractor
	transcriber Transcriber
	identifier  Identifier
	explainer   Explainer
	logger      *slog.Logger
	sleep       func(time.Duration)
}

// Option customizes runner construction.
type Option func(*Runner)

// WithSleeper overrides the delay function used between retries and batches.
// Tests use this to avoid real waits.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewRunner wires a pipeline runner from its collaborators.
func NewRunner(store *projects.Store, cfg *config.Config, extractor Extractor, transcriber Transcriber, identifier Identifier, explainerService Explainer, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		store:       store,
		cfg:         cfg,
		extractor:   extractor,
		transcriber: transcriber,
		identifier:  identifier,
		explainer:   explainerService,
		logger:      logger.With(logging.String("component", "pipeline")),
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Process runs a project through every stage. On failure the project is
// marked with status error and the failure message, then the error is
// returned to the caller.
func (r *Runner) Process(ctx context.Context, projectID string) error {
	ctx = services.WithProjectID(ctx, projectID)
	logger := r.logger.With(logging.String("project_id", projectID))

	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}
	if project == nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "load", fmt.Sprintf("project %s not found", projectID), nil)
	}

	if err := r.run(ctx, logger, project); err != nil {
		if markErr := r.store.MarkError(ctx, projectID, err.Error()); markErr != nil {
			logger.Error("failed to record pipeline error", logging.Error(markErr))
		}
		logger.Error("pipeline failed", logging.Error(err))
		return err
	}

	if err := r.store.SetStatus(ctx, projectID, projects.StatusReady); err != nil {
		return fmt.Errorf("mark project ready: %w", err)
	}
	logger.Info("pipeline complete")
	return nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, project *projects.Project) error {
	audioPath, err := r.extractAudio(ctx, logger, project)
	if err != nil {
		return err
	}

	result, sentences, err := r.transcribe(ctx, logger, project, audioPath)
	if err != nil {
		return err
	}

	r.identifySpeakers(ctx, logger, project, result)

	return r.explainSentences(ctx, logger, project, sentences)
}

func (r *Runner) extractAudio(ctx context.Context, logger *slog.Logger, project *projects.Project) (string, error) {
	ctx = services.WithStage(ctx, "extracting")
	if err := r.store.SetStatus(ctx, project.ID, projects.StatusExtracting); err != nil {
		return "", fmt.Errorf("enter extracting stage: %w", err)
	}

	audioPath := r.cfg.AudioPath(project.ID)
	logger.Info("extracting audio",
		logging.String("input", project.OriginalFile),
		logging.String("output", audioPath))
	if err := r.extractor.Extract(ctx, project.OriginalFile, audioPath); err != nil {
		return "", services.Wrap(services.ErrExtraction, "extracting", "extract", "audio extraction failed", err)
	}
	if err := r.store.SetAudioFile(ctx, project.ID, audioPath); err != nil {
		return "", fmt.Errorf("record audio path: %w", err)
	}
	return audioPath, nil
}

func (r *Runner) transcribe(ctx context.Context, logger *slog.Logger, project *projects.Project, audioPath string) (assemblyai.Result, []*projects.Sentence, error) {
	ctx = services.WithStage(ctx, "transcribing")
	if err := r.store.SetStatus(ctx, project.ID, projects.StatusTranscribing); err != nil {
		return assemblyai.Result{}, nil, fmt.Errorf("enter transcribing stage: %w", err)
	}

	var result assemblyai.Result
	err := r.retry(ctx, logger, "transcribe", func() error {
		var transcribeErr error
		result, transcribeErr = r.transcriber.Transcribe(ctx, audioPath)
		return transcribeErr
	})
	if err != nil {
		return assemblyai.Result{}, nil, services.Wrap(services.ErrTranscription, "transcribing", "transcribe", "transcription failed", err)
	}

	segments := splitter.New(r.cfg.Pipeline.MaxSentenceWords).Split(result.Utterances)
	logger.Info("transcription complete",
		logging.Int("utterances", len(result.Utterances)),
		logging.Int("sentences", len(segments)),
		logging.Int("speakers", len(result.Speakers)))

	speakerIDs := make(map[string]string, len(result.Speakers))
	speakers := make([]*projects.Speaker, 0, len(result.Speakers))
	for _, info := range result.Speakers {
		evidence, err := json.Marshal(info.Evidence)
		if err != nil {
			return assemblyai.Result{}, nil, fmt.Errorf("encode speaker evidence: %w", err)
		}
		speaker := &projects.Speaker{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Label:     info.Label,
			Evidence:  string(evidence),
		}
		speakerIDs[info.Label] = speaker.ID
		speakers = append(speakers, speaker)
	}

	sentences := make([]*projects.Sentence, 0, len(segments))
	for idx, segment := range segments {
		sentences = append(sentences, &projects.Sentence{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Index:     idx,
			Text:      segment.Text,
			StartTime: segment.Start,
			EndTime:   segment.End,
			SpeakerID: speakerIDs[segment.Speaker],
		})
	}

	if err := r.store.InsertSpeakers(ctx, speakers); err != nil {
		return assemblyai.Result{}, nil, fmt.Errorf("store speakers: %w", err)
	}
	if err := r.store.InsertSentences(ctx, sentences); err != nil {
		return assemblyai.Result{}, nil, fmt.Errorf("store sentences: %w", err)
	}
	if err := r.store.SetSentenceCounts(ctx, project.ID, len(sentences), 0); err != nil {
		return assemblyai.Result{}, nil, fmt.Errorf("store sentence counts: %w", err)
	}
	return result, sentences, nil
}

// identifySpeakers is best-effort: a failed identification leaves diarization
// labels in place and never aborts the pipeline.
func (r *Runner) identifySpeakers(ctx context.Context, logger *slog.Logger, project *projects.Project, result assemblyai.Result) {
	ctx = services.WithStage(ctx, "identifying")
	if err := r.store.SetStatus(ctx, project.ID, projects.StatusIdentifying); err != nil {
		logger.Warn("failed to enter identifying stage", logging.Error(err))
		return
	}

	transcript := make([]speakerid.TranscriptEntry, 0, len(result.Utterances))
	for _, utterance := range result.Utterances {
		transcript = append(transcript, speakerid.TranscriptEntry{
			Label: utterance.Speaker,
			Text:  utterance.Text,
		})
	}

	outcome := r.identifier.Identify(ctx, transcript, project.Name)
	if outcome.Suppressed != nil {
		logger.Warn("speaker identification skipped", logging.Error(outcome.Suppressed))
		return
	}
	for label, identification := range outcome.Identified {
		if err := r.store.ApplyIdentification(ctx, project.ID, label, identification.Name, identification.Confidence, identification.Evidence); err != nil {
			logger.Warn("failed to apply speaker identification",
				logging.String("label", label),
				logging.Error(err))
		}
	}
	logger.Info("speaker identification complete", logging.Int("identified", len(outcome.Identified)))
}

func (r *Runner) explainSentences(ctx context.Context, logger *slog.Logger, project *projects.Project, sentences []*projects.Sentence) error {
	ctx = services.WithStage(ctx, "explaining")
	if err := r.store.SetStatus(ctx, project.ID, projects.StatusExplaining); err != nil {
		return fmt.Errorf("enter explaining stage: %w", err)
	}
	if len(sentences) == 0 {
		return nil
	}

	batchSize := r.cfg.Pipeline.ExplanationBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	batchDelay := time.Duration(r.cfg.Pipeline.BatchDelayMillis) * time.Millisecond

	for start := 0; start < len(sentences); start += batchSize {
		end := start + batchSize
		if end > len(sentences) {
			end = len(sentences)
		}
		batch := sentences[start:end]
		texts := make([]string, len(batch))
		for i, sentence := range batch {
			texts[i] = sentence.Text
		}

		var explanations []explainer.Explanation
		err := r.retry(ctx, logger, "explain", func() error {
			var explainErr error
			explanations, explainErr = r.explainer.ExplainBatch(ctx, texts)
			return explainErr
		})
		if err != nil {
			return services.Wrap(services.ErrExplanation, "explaining", "explain_batch",
				fmt.Sprintf("explanation batch at sentence %d failed", start), err)
		}

		for i, sentence := range batch {
			explanation := explanations[i]
			if err := r.store.SetSentenceEnrichment(ctx, sentence.ID, explanation.TranslationEN, explanation.ExplanationNL, explanation.ExplanationEN); err != nil {
				return fmt.Errorf("store enrichment for sentence %s: %w", sentence.ID, err)
			}
			keywords := make([]*projects.Keyword, 0, len(explanation.Keywords))
			for _, keyword := range explanation.Keywords {
				keywords = append(keywords, &projects.Keyword{
					ID:         uuid.NewString(),
					SentenceID: sentence.ID,
					Word:       keyword.Word,
					MeaningNL:  keyword.MeaningNL,
					MeaningEN:  keyword.MeaningEN,
				})
			}
			if err := r.store.ReplaceKeywords(ctx, sentence.ID, keywords); err != nil {
				return fmt.Errorf("store keywords for sentence %s: %w", sentence.ID, err)
			}
		}

		if err := r.store.SetProcessedSentences(ctx, project.ID, end); err != nil {
			return fmt.Errorf("store explanation progress: %w", err)
		}
		logger.Info("explanation batch complete",
			logging.Int("processed", end),
			logging.Int("total", len(sentences)))

		if end < len(sentences) && batchDelay > 0 {
			r.sleep(batchDelay)
		}
	}
	return nil
}

// retry reruns fn with exponential backoff. MaxRetries caps the total number
// of attempts, and non-retryable failures stop immediately.
func (r *Runner) retry(ctx context.Context, logger *slog.Logger, operation string, fn func() error) error {
	attempts := r.cfg.Pipeline.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	baseDelay := time.Duration(r.cfg.Pipeline.RetryDelaySeconds) * time.Second

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !services.Retryable(lastErr) || attempt == attempts-1 {
			break
		}
		delay := baseDelay * (1 << attempt)
		logger.Warn("operation failed, retrying",
			logging.String("operation", operation),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", delay),
			logging.Error(lastErr))
		r.sleep(delay)
	}
	return lastErr
}
