package projects_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"dutchlearn/internal/projects"
	"dutchlearn/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, err := store.NewProject(ctx, "Podcast aflevering 1", "/uploads/ep1.mp4")
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if project.ID == "" {
		t.Fatal("expected project ID to be assigned")
	}
	if project.Status != projects.StatusPending {
		t.Fatalf("expected pending status, got %s", project.Status)
	}

	fetched, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched == nil || fetched.Name != "Podcast aflevering 1" {
		t.Fatalf("unexpected fetched project: %#v", fetched)
	}

	missing, err := store.GetProject(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("GetProject for missing id failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing project, got %#v", missing)
	}
}

func TestSetStatusClearsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Les 2", "/uploads/les2.mp3")

	if err := store.MarkError(ctx, project.ID, "transcription: poll timed out"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	errored, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if errored.Status != projects.StatusError || errored.ErrorMessage == "" {
		t.Fatalf("expected error status with message, got %#v", errored)
	}

	if err := store.SetStatus(ctx, project.ID, projects.StatusPending); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	reset, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if reset.Status != projects.StatusPending {
		t.Fatalf("expected pending status, got %s", reset.Status)
	}
	if reset.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", reset.ErrorMessage)
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	project := testsupport.NewProject(t, store, "Les 3", "/uploads/les3.mp3")
	if err := store.SetStatus(context.Background(), project.ID, projects.Status("uploading")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestListProjectsFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewProject(t, store, "Eerste", "/uploads/a.mp3")
	second := testsupport.NewProject(t, store, "Tweede", "/uploads/b.mp3")
	if err := store.SetStatus(ctx, second.ID, projects.StatusReady); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	all, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(all))
	}

	pending, err := store.ListProjects(ctx, projects.StatusPending)
	if err != nil {
		t.Fatalf("ListProjects(pending) failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending projects: %#v", pending)
	}
}

func TestSentenceCountsAndProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Voortgang", "/uploads/p.mp3")

	if err := store.SetSentenceCounts(ctx, project.ID, 10, 0); err != nil {
		t.Fatalf("SetSentenceCounts failed: %v", err)
	}
	if err := store.SetSentenceCounts(ctx, project.ID, 10, 11); err == nil {
		t.Fatal("expected error when processed exceeds total")
	}
	if err := store.SetStatus(ctx, project.ID, projects.StatusExplaining); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetProcessedSentences(ctx, project.ID, 4); err != nil {
		t.Fatalf("SetProcessedSentences failed: %v", err)
	}

	updated, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got := updated.Progress(); got != 68 {
		t.Fatalf("expected progress 68, got %d", got)
	}

	// Clamp: a processed count beyond the total never exceeds it.
	if err := store.SetProcessedSentences(ctx, project.ID, 25); err != nil {
		t.Fatalf("SetProcessedSentences failed: %v", err)
	}
	clamped, err := store.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if clamped.ProcessedSentences != 10 {
		t.Fatalf("expected processed clamped to 10, got %d", clamped.ProcessedSentences)
	}
}

func seedSentences(t *testing.T, store *projects.Store, projectID string, count int) []*projects.Sentence {
	t.Helper()
	sentences := make([]*projects.Sentence, 0, count)
	for i := 0; i < count; i++ {
		sentences = append(sentences, &projects.Sentence{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Index:     i,
			Text:      fmt.Sprintf("Zin nummer %d.", i+1),
			StartTime: float64(i),
			EndTime:   float64(i) + 0.9,
		})
	}
	if err := store.InsertSentences(context.Background(), sentences); err != nil {
		t.Fatalf("InsertSentences failed: %v", err)
	}
	return sentences
}

func TestSentenceRoundTripAndEnrichment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Zinnen", "/uploads/z.mp3")
	seeded := seedSentences(t, store, project.ID, 3)

	listed, err := store.SentencesByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("SentencesByProject failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(listed))
	}
	for i, sentence := range listed {
		if sentence.Index != i {
			t.Fatalf("expected index %d, got %d", i, sentence.Index)
		}
	}

	target := seeded[1]
	if err := store.SetSentenceEnrichment(ctx, target.ID, "Sentence number two.", "Uitleg in het Nederlands.", "Explanation in English."); err != nil {
		t.Fatalf("SetSentenceEnrichment failed: %v", err)
	}
	enriched, err := store.GetSentence(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetSentence failed: %v", err)
	}
	if enriched.TranslationEN != "Sentence number two." || enriched.ExplanationNL == "" || enriched.ExplanationEN == "" {
		t.Fatalf("unexpected enrichment: %#v", enriched)
	}
}

func TestInsertSentencesPersistsAllFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Volledig", "/uploads/v.mp3")

	reviewedAt := time.Date(2026, 5, 2, 18, 30, 0, 0, time.UTC)
	sentence := &projects.Sentence{
		ID:            uuid.NewString(),
		ProjectID:     project.ID,
		Index:         0,
		Text:          "Wij oefenen elke avond.",
		StartTime:     1.5,
		EndTime:       3.2,
		TranslationEN: "We practice every evening.",
		ExplanationNL: "Uitleg.",
		ExplanationEN: "Explanation.",
		Learned:       true,
		LearnCount:    2,
		IsDifficult:   true,
		ReviewCount:   4,
		LastReviewed:  &reviewedAt,
	}
	if err := store.InsertSentences(ctx, []*projects.Sentence{sentence}); err != nil {
		t.Fatalf("InsertSentences failed: %v", err)
	}

	fetched, err := store.GetSentence(ctx, sentence.ID)
	if err != nil {
		t.Fatalf("GetSentence failed: %v", err)
	}
	if !fetched.Learned || fetched.LearnCount != 2 || !fetched.IsDifficult || fetched.ReviewCount != 4 {
		t.Fatalf("review state dropped on insert: %#v", fetched)
	}
	if fetched.TranslationEN != sentence.TranslationEN || fetched.ExplanationNL != sentence.ExplanationNL {
		t.Fatalf("enrichment dropped on insert: %#v", fetched)
	}
	if fetched.LastReviewed == nil || !fetched.LastReviewed.Equal(reviewedAt) {
		t.Fatalf("unexpected last reviewed: %v", fetched.LastReviewed)
	}
}

func TestReviewMutators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Herhaling", "/uploads/h.mp3")
	seeded := seedSentences(t, store, project.ID, 1)
	id := seeded[0].ID

	if err := store.MarkLearned(ctx, id); err != nil {
		t.Fatalf("MarkLearned failed: %v", err)
	}
	if err := store.MarkLearned(ctx, id); err != nil {
		t.Fatalf("MarkLearned failed: %v", err)
	}
	if err := store.SetDifficult(ctx, id, true); err != nil {
		t.Fatalf("SetDifficult failed: %v", err)
	}
	reviewedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := store.RecordReview(ctx, id, reviewedAt); err != nil {
		t.Fatalf("RecordReview failed: %v", err)
	}

	sentence, err := store.GetSentence(ctx, id)
	if err != nil {
		t.Fatalf("GetSentence failed: %v", err)
	}
	if !sentence.Learned || sentence.LearnCount != 2 {
		t.Fatalf("expected learned with count 2, got %#v", sentence)
	}
	if !sentence.IsDifficult || sentence.ReviewCount != 1 {
		t.Fatalf("expected difficult with one review, got %#v", sentence)
	}
	if sentence.LastReviewed == nil || !sentence.LastReviewed.Equal(reviewedAt) {
		t.Fatalf("unexpected last reviewed: %v", sentence.LastReviewed)
	}
}

func TestSpeakerIdentificationHonorsManualLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Sprekers", "/uploads/s.mp3")

	speakers := []*projects.Speaker{
		{ID: uuid.NewString(), ProjectID: project.ID, Label: "A"},
		{ID: uuid.NewString(), ProjectID: project.ID, Label: "B"},
	}
	if err := store.InsertSpeakers(ctx, speakers); err != nil {
		t.Fatalf("InsertSpeakers failed: %v", err)
	}

	if err := store.RenameSpeaker(ctx, speakers[0].ID, "Anna"); err != nil {
		t.Fatalf("RenameSpeaker failed: %v", err)
	}
	if err := store.ApplyIdentification(ctx, project.ID, "A", "Host", 0.9, "opening lines"); err != nil {
		t.Fatalf("ApplyIdentification failed: %v", err)
	}
	if err := store.ApplyIdentification(ctx, project.ID, "B", "Gast", 0.7, "reply lines"); err != nil {
		t.Fatalf("ApplyIdentification failed: %v", err)
	}

	listed, err := store.SpeakersByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("SpeakersByProject failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(listed))
	}
	if listed[0].DisplayName != "Anna" || !listed[0].IsManual {
		t.Fatalf("manual speaker overwritten: %#v", listed[0])
	}
	if listed[1].DisplayName != "Gast" || listed[1].Confidence != 0.7 {
		t.Fatalf("unexpected identified speaker: %#v", listed[1])
	}
}

func TestKeywordsReplaceAndQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Woorden", "/uploads/w.mp3")
	seeded := seedSentences(t, store, project.ID, 2)

	first := []*projects.Keyword{
		{ID: uuid.NewString(), Word: "fiets", MeaningNL: "tweewieler", MeaningEN: "bicycle"},
		{ID: uuid.NewString(), Word: "huis", MeaningNL: "woning", MeaningEN: "house"},
	}
	if err := store.ReplaceKeywords(ctx, seeded[0].ID, first); err != nil {
		t.Fatalf("ReplaceKeywords failed: %v", err)
	}

	// Re-running the explain stage replaces rather than appends.
	second := []*projects.Keyword{
		{ID: uuid.NewString(), Word: "fiets", MeaningNL: "rijwiel", MeaningEN: "bike"},
	}
	if err := store.ReplaceKeywords(ctx, seeded[0].ID, second); err != nil {
		t.Fatalf("ReplaceKeywords failed: %v", err)
	}

	bySentence, err := store.KeywordsBySentence(ctx, seeded[0].ID)
	if err != nil {
		t.Fatalf("KeywordsBySentence failed: %v", err)
	}
	if len(bySentence) != 1 || bySentence[0].MeaningNL != "rijwiel" {
		t.Fatalf("unexpected keywords: %#v", bySentence)
	}

	byProject, err := store.KeywordsByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("KeywordsByProject failed: %v", err)
	}
	if len(byProject) != 1 {
		t.Fatalf("expected 1 project keyword, got %d", len(byProject))
	}
}

func TestUpsertsAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	project := &projects.Project{
		ID:           uuid.NewString(),
		Name:         "Geimporteerd",
		OriginalFile: "/uploads/import.mp3",
		Status:       projects.StatusReady,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := 0; i < 2; i++ {
		if err := store.UpsertProject(ctx, project); err != nil {
			t.Fatalf("UpsertProject failed: %v", err)
		}
	}
	all, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 project after repeated upsert, got %d", len(all))
	}

	speaker := &projects.Speaker{ID: uuid.NewString(), ProjectID: project.ID, Label: "A", DisplayName: "Anna"}
	for i := 0; i < 2; i++ {
		if err := store.UpsertSpeaker(ctx, speaker); err != nil {
			t.Fatalf("UpsertSpeaker failed: %v", err)
		}
	}
	speakers, err := store.SpeakersByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("SpeakersByProject failed: %v", err)
	}
	if len(speakers) != 1 {
		t.Fatalf("expected 1 speaker after repeated upsert, got %d", len(speakers))
	}

	sentence := &projects.Sentence{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Index:     0,
		Text:      "Hallo wereld.",
		EndTime:   1.5,
		SpeakerID: speaker.ID,
	}
	for i := 0; i < 2; i++ {
		if err := store.UpsertSentence(ctx, sentence); err != nil {
			t.Fatalf("UpsertSentence failed: %v", err)
		}
	}
	sentences, err := store.SentencesByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("SentencesByProject failed: %v", err)
	}
	if len(sentences) != 1 || sentences[0].SpeakerID != speaker.ID {
		t.Fatalf("unexpected sentences after upsert: %#v", sentences)
	}

	keyword := &projects.Keyword{ID: uuid.NewString(), SentenceID: sentence.ID, Word: "wereld", MeaningEN: "world"}
	for i := 0; i < 2; i++ {
		if err := store.UpsertKeyword(ctx, keyword); err != nil {
			t.Fatalf("UpsertKeyword failed: %v", err)
		}
	}
	keywords, err := store.KeywordsBySentence(ctx, sentence.ID)
	if err != nil {
		t.Fatalf("KeywordsBySentence failed: %v", err)
	}
	if len(keywords) != 1 {
		t.Fatalf("expected 1 keyword after repeated upsert, got %d", len(keywords))
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project := testsupport.NewProject(t, store, "Weg", "/uploads/weg.mp3")
	seeded := seedSentences(t, store, project.ID, 2)
	if err := store.ReplaceKeywords(ctx, seeded[0].ID, []*projects.Keyword{
		{ID: uuid.NewString(), Word: "weg", MeaningEN: "road"},
	}); err != nil {
		t.Fatalf("ReplaceKeywords failed: %v", err)
	}

	if err := store.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	sentences, err := store.SentencesByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("SentencesByProject failed: %v", err)
	}
	if len(sentences) != 0 {
		t.Fatalf("expected cascade delete of sentences, got %d", len(sentences))
	}
	if err := store.DeleteProject(ctx, project.ID); err == nil {
		t.Fatal("expected error deleting missing project")
	}
}
