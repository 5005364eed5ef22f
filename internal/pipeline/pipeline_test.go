package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"dutchlearn/internal/projects"
	"dutchlearn/internal/services"
	"dutchlearn/internal/services/assemblyai"
	"dutchlearn/internal/services/explainer"
	"dutchlearn/internal/services/speakerid"
	"dutchlearn/internal/splitter"
	"dutchlearn/internal/testsupport"
)

type fakeExtractor struct {
	calls int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, inputPath, outputPath string) error {
	f.calls++
	return f.err
}

type fakeTranscriber struct {
	calls  int
	result assemblyai.Result
	errs   []error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (assemblyai.Result, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return assemblyai.Result{}, err
		}
	}
	return f.result, nil
}

type fakeIdentifier struct {
	calls   int
	outcome speakerid.Outcome
}

func (f *fakeIdentifier) Identify(ctx context.Context, transcript []speakerid.TranscriptEntry, projectName string) speakerid.Outcome {
	f.calls++
	if f.outcome.Identified == nil {
		f.outcome.Identified = map[string]speakerid.Identification{}
	}
	return f.outcome
}

type fakeExplainer struct {
	batches [][]string
	err     error
}

func (f *fakeExplainer) ExplainBatch(ctx context.Context, texts []string) ([]explainer.Explanation, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	explanations := make([]explainer.Explanation, len(texts))
	for i, text := range texts {
		explanations[i] = explainer.Explanation{
			TranslationEN: "translated: " + text,
			ExplanationNL: "uitleg",
			ExplanationEN: "usage note",
			Keywords:      []explainer.Keyword{{Word: fmt.Sprintf("woord%d", i), MeaningNL: "nl", MeaningEN: "en"}},
		}
	}
	return explanations, nil
}

func transcriptFixture() assemblyai.Result {
	return assemblyai.Result{
		Speakers: []assemblyai.SpeakerInfo{
			{Label: "A", Evidence: []string{"Hallo, ik ben Jan."}},
			{Label: "B", Evidence: []string{"Welkom."}},
		},
		Utterances: []splitter.Utterance{
			{
				Text: "Hallo, ik ben Jan.", Start: 0.0, End: 2.0, Speaker: "A",
				Words: []splitter.Word{
					{Text: "Hallo,", Start: 0.0, End: 0.5},
					{Text: "ik", Start: 0.6, End: 0.8},
					{Text: "ben", Start: 0.9, End: 1.2},
					{Text: "Jan.", Start: 1.3, End: 2.0},
				},
			},
			{
				Text: "Welkom bij de les.", Start: 2.5, End: 4.5, Speaker: "B",
				Words: []splitter.Word{
					{Text: "Welkom", Start: 2.5, End: 3.0},
					{Text: "bij", Start: 3.1, End: 3.3},
					{Text: "de", Start: 3.4, End: 3.5},
					{Text: "les.", Start: 3.6, End: 4.5},
				},
			},
		},
	}
}

type runnerFixture struct {
	runner      *Runner
	store       *projects.Store
	project     *projects.Project
	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	identifier  *fakeIdentifier
	explainer   *fakeExplainer
	slept       []time.Duration
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.MaxRetries = 3
	cfg.Pipeline.RetryDelaySeconds = 1
	cfg.Pipeline.ExplanationBatchSize = 1
	cfg.Pipeline.BatchDelayMillis = 500

	store := testsupport.MustOpenStore(t, cfg)
	input := filepath.Join(cfg.Paths.UploadDir, "lesson.mp4")
	testsupport.WriteFile(t, input, 64)
	project := testsupport.NewProject(t, store, "Les", input)

	fixture := &runnerFixture{
		store:       store,
		project:     project,
		extractor:   &fakeExtractor{},
		transcriber: &fakeTranscriber{result: transcriptFixture()},
		identifier:  &fakeIdentifier{},
		explainer:   &fakeExplainer{},
	}
	fixture.runner = NewRunner(store, cfg, fixture.extractor, fixture.transcriber, fixture.identifier, fixture.explainer, nil,
		WithSleeper(func(d time.Duration) { fixture.slept = append(fixture.slept, d) }))
	return fixture
}

func TestProcessRunsAllStages(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()

	if err := fixture.runner.Process(ctx, fixture.project.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	project, err := fixture.store.GetProject(ctx, fixture.project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if project.Status != projects.StatusReady {
		t.Fatalf("status = %s, want ready", project.Status)
	}
	if project.AudioFile == "" {
		t.Fatal("audio file path not recorded")
	}
	if project.TotalSentences != 2 || project.ProcessedSentences != 2 {
		t.Fatalf("sentence counts = %d/%d, want 2/2", project.ProcessedSentences, project.TotalSentences)
	}

	sentences, err := fixture.store.SentencesByProject(ctx, fixture.project.ID)
	if err != nil {
		t.Fatalf("SentencesByProject: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sentences))
	}
	if sentences[0].Text != "Hallo, ik ben Jan." || sentences[0].SpeakerID == "" {
		t.Fatalf("unexpected first sentence: %+v", sentences[0])
	}
	if sentences[0].TranslationEN != "translated: Hallo, ik ben Jan." {
		t.Fatalf("enrichment missing: %+v", sentences[0])
	}

	keywords, err := fixture.store.KeywordsBySentence(ctx, sentences[0].ID)
	if err != nil {
		t.Fatalf("KeywordsBySentence: %v", err)
	}
	if len(keywords) != 1 || keywords[0].Word != "woord0" {
		t.Fatalf("unexpected keywords: %+v", keywords)
	}

	speakers, err := fixture.store.SpeakersByProject(ctx, fixture.project.ID)
	if err != nil {
		t.Fatalf("SpeakersByProject: %v", err)
	}
	if len(speakers) != 2 {
		t.Fatalf("got %d speakers, want 2", len(speakers))
	}

	// One batch per sentence, with the rate-limit pause between them.
	if len(fixture.explainer.batches) != 2 {
		t.Fatalf("got %d explanation batches, want 2", len(fixture.explainer.batches))
	}
	if len(fixture.slept) != 1 || fixture.slept[0] != 500*time.Millisecond {
		t.Fatalf("unexpected batch delays: %v", fixture.slept)
	}
}

func TestProcessRetriesTranscription(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.transcriber.errs = []error{errors.New("upload reset"), errors.New("poll timeout")}

	if err := fixture.runner.Process(context.Background(), fixture.project.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if fixture.transcriber.calls != 3 {
		t.Fatalf("transcriber called %d times, want 3", fixture.transcriber.calls)
	}
	// Backoff doubles from the configured base delay.
	if len(fixture.slept) < 2 || fixture.slept[0] != time.Second || fixture.slept[1] != 2*time.Second {
		t.Fatalf("unexpected retry delays: %v", fixture.slept)
	}
}

func TestProcessMarksErrorOnExhaustedRetries(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.transcriber.errs = []error{
		errors.New("fail 1"),
		errors.New("fail 2"),
		errors.New("fail 3"),
	}

	err := fixture.runner.Process(context.Background(), fixture.project.ID)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("error %v does not wrap ErrTranscription", err)
	}
	if fixture.transcriber.calls != 3 {
		t.Fatalf("transcriber called %d times, want total attempt cap 3", fixture.transcriber.calls)
	}

	project, getErr := fixture.store.GetProject(context.Background(), fixture.project.ID)
	if getErr != nil {
		t.Fatalf("GetProject: %v", getErr)
	}
	if project.Status != projects.StatusError {
		t.Fatalf("status = %s, want error", project.Status)
	}
	if project.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}

	sentences, _ := fixture.store.SentencesByProject(context.Background(), fixture.project.ID)
	if len(sentences) != 0 {
		t.Fatalf("expected no sentences after failed transcription, got %d", len(sentences))
	}
}

func TestProcessDoesNotRetryValidationErrors(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.transcriber.errs = []error{
		services.Wrap(services.ErrValidation, "transcribing", "upload", "unsupported format", nil),
	}

	err := fixture.runner.Process(context.Background(), fixture.project.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if fixture.transcriber.calls != 1 {
		t.Fatalf("transcriber called %d times, want 1", fixture.transcriber.calls)
	}
}

func TestProcessSurvivesIdentificationFailure(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.identifier.outcome = speakerid.Outcome{Suppressed: errors.New("model unavailable")}

	if err := fixture.runner.Process(context.Background(), fixture.project.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	project, err := fixture.store.GetProject(context.Background(), fixture.project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if project.Status != projects.StatusReady {
		t.Fatalf("status = %s, want ready despite identification failure", project.Status)
	}

	speakers, _ := fixture.store.SpeakersByProject(context.Background(), fixture.project.ID)
	for _, speaker := range speakers {
		if speaker.DisplayName != "" {
			t.Fatalf("speaker %s unexpectedly named %q", speaker.Label, speaker.DisplayName)
		}
	}
}

func TestProcessAppliesIdentifications(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.identifier.outcome = speakerid.Outcome{Identified: map[string]speakerid.Identification{
		"A": {Label: "A", Name: "Jan de Vries", Confidence: 0.9, Evidence: "introduced himself"},
	}}

	if err := fixture.runner.Process(context.Background(), fixture.project.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	speakers, err := fixture.store.SpeakersByProject(context.Background(), fixture.project.ID)
	if err != nil {
		t.Fatalf("SpeakersByProject: %v", err)
	}
	var jan *projects.Speaker
	for _, speaker := range speakers {
		if speaker.Label == "A" {
			jan = speaker
		}
	}
	if jan == nil || jan.DisplayName != "Jan de Vries" || jan.Confidence != 0.9 {
		t.Fatalf("identification not applied: %+v", jan)
	}
}

func TestProcessExtractionFailure(t *testing.T) {
	fixture := newRunnerFixture(t)
	fixture.extractor.err = errors.New("ffmpeg exited 1")

	err := fixture.runner.Process(context.Background(), fixture.project.ID)
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("error %v does not wrap ErrExtraction", err)
	}

	project, _ := fixture.store.GetProject(context.Background(), fixture.project.ID)
	if project.Status != projects.StatusError {
		t.Fatalf("status = %s, want error", project.Status)
	}
}

func TestProcessUnknownProject(t *testing.T) {
	fixture := newRunnerFixture(t)

	err := fixture.runner.Process(context.Background(), "no-such-id")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error %v does not wrap ErrNotFound", err)
	}
}
