package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"dutchlearn/internal/config"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/services"
	"dutchlearn/internal/snapshot"
	"dutchlearn/internal/testsupport"
)

// fakeRemote is an in-memory remote snapshot store.
type fakeRemote struct {
	docs    map[string]snapshot.Document
	blobs   map[string][]byte
	listErr error
	docErrs map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs:    map[string]snapshot.Document{},
		blobs:   map[string][]byte{},
		docErrs: map[string]error{},
	}
}

func (f *fakeRemote) List(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRemote) GetDocument(ctx context.Context, projectID string) (snapshot.Document, error) {
	if err := f.docErrs[projectID]; err != nil {
		return snapshot.Document{}, err
	}
	doc, ok := f.docs[projectID]
	if !ok {
		return snapshot.Document{}, services.ErrNotFound
	}
	return doc, nil
}

func (f *fakeRemote) PutDocument(ctx context.Context, projectID string, doc snapshot.Document) error {
	if err := f.docErrs[projectID]; err != nil {
		return err
	}
	f.docs[projectID] = doc
	return nil
}

func (f *fakeRemote) GetBlob(ctx context.Context, projectID string) (io.ReadCloser, error) {
	blob, ok := f.blobs[projectID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

func (f *fakeRemote) PutBlob(ctx context.Context, projectID string, body io.Reader) error {
	blob, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.blobs[projectID] = blob
	return nil
}

func newEngineFixture(t *testing.T) (*Engine, *projects.Store, *fakeRemote, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Sync.UploadAudio = true
	store := testsupport.MustOpenStore(t, cfg)
	remote := newFakeRemote()
	engine := NewEngine(store, remote, cfg, nil, WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}))
	return engine, store, remote, cfg
}

func seedReadyProject(t *testing.T, store *projects.Store, cfg *config.Config, name string) *projects.Project {
	t.Helper()
	ctx := context.Background()
	project := testsupport.NewProject(t, store, name, "/uploads/"+name+".mp4")
	for _, status := range []projects.Status{
		projects.StatusExtracting,
		projects.StatusTranscribing,
		projects.StatusIdentifying,
		projects.StatusExplaining,
		projects.StatusReady,
	} {
		if err := store.SetStatus(ctx, project.ID, status); err != nil {
			t.Fatalf("SetStatus(%s): %v", status, err)
		}
	}
	sentence := &projects.Sentence{
		ID:        project.ID + "-s0",
		ProjectID: project.ID,
		Index:     0,
		Text:      "Hallo wereld.",
		StartTime: 0,
		EndTime:   1.5,
	}
	if err := store.InsertSentences(ctx, []*projects.Sentence{sentence}); err != nil {
		t.Fatalf("InsertSentences: %v", err)
	}
	if err := store.SetSentenceCounts(ctx, project.ID, 1, 1); err != nil {
		t.Fatalf("SetSentenceCounts: %v", err)
	}
	testsupport.WriteFile(t, cfg.AudioPath(project.ID), 128)
	return project
}

func TestUploadPushesReadyProjects(t *testing.T) {
	engine, store, remote, cfg := newEngineFixture(t)
	project := seedReadyProject(t, store, cfg, "rondreis")
	// Pending projects are not uploaded.
	testsupport.NewProject(t, store, "pending", "/uploads/pending.mp4")

	result, err := engine.Upload(context.Background(), nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(result.Uploaded) != 1 || result.Uploaded[0] != project.ID {
		t.Fatalf("unexpected uploads: %v", result.Uploaded)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	doc, ok := remote.docs[project.ID]
	if !ok {
		t.Fatal("snapshot not stored on remote")
	}
	if doc.Name != "rondreis" || len(doc.Sentences) != 1 {
		t.Fatalf("unexpected remote snapshot: %+v", doc)
	}
	if len(remote.blobs[project.ID]) != 128 {
		t.Fatalf("audio blob size = %d, want 128", len(remote.blobs[project.ID]))
	}
}

func TestUploadSkipsAudioWhenDisabled(t *testing.T) {
	engine, store, remote, cfg := newEngineFixture(t)
	cfg.Sync.UploadAudio = false
	project := seedReadyProject(t, store, cfg, "rondreis")

	if _, err := engine.Upload(context.Background(), nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, ok := remote.blobs[project.ID]; ok {
		t.Fatal("audio uploaded despite upload_audio = false")
	}
}

func TestUploadCapturesPerProjectErrors(t *testing.T) {
	engine, store, remote, cfg := newEngineFixture(t)
	broken := seedReadyProject(t, store, cfg, "broken")
	healthy := seedReadyProject(t, store, cfg, "healthy")
	remote.docErrs[broken.ID] = errors.New("quota exceeded")

	result, err := engine.Upload(context.Background(), nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(result.Uploaded) != 1 || result.Uploaded[0] != healthy.ID {
		t.Fatalf("unexpected uploads: %v", result.Uploaded)
	}
	if len(result.Errors) != 1 || result.Errors[0].ProjectID != broken.ID {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestDownloadImportsNewProjectWithAudio(t *testing.T) {
	engine, store, remote, cfg := newEngineFixture(t)
	remote.docs["new-project"] = snapshot.Document{
		ID:        "new-project",
		Name:      "Nieuw",
		Status:    "ready",
		CreatedAt: "2026-08-01T10:00:00Z",
		UpdatedAt: "2026-08-01T10:00:00Z",
		Sentences: []snapshot.SentenceRecord{
			{ID: "s1", Index: 0, Text: "Goedemorgen.", StartTime: 0, EndTime: 1, Keywords: []snapshot.KeywordRef{}},
		},
		Progress: snapshot.ProgressBlock{TotalSentences: 1, LastSync: "2026-08-01T10:00:00Z"},
	}
	remote.blobs["new-project"] = bytes.Repeat([]byte{0x42}, 64)

	result, err := engine.Download(context.Background(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.New) != 1 || result.New[0] != "new-project" {
		t.Fatalf("unexpected new projects: %v", result.New)
	}
	if len(result.Merged) != 0 {
		t.Fatalf("unexpected merges: %v", result.Merged)
	}

	project, err := store.GetProject(context.Background(), "new-project")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if project == nil || project.Name != "Nieuw" || project.Status != projects.StatusReady {
		t.Fatalf("imported project wrong: %+v", project)
	}

	audio, err := os.ReadFile(cfg.AudioPath("new-project"))
	if err != nil {
		t.Fatalf("audio blob not written: %v", err)
	}
	if len(audio) != 64 {
		t.Fatalf("audio size = %d, want 64", len(audio))
	}
}

func TestDownloadMergesExistingProject(t *testing.T) {
	engine, store, remote, cfg := newEngineFixture(t)
	project := seedReadyProject(t, store, cfg, "rondreis")

	// Remote copy of the same sentence with more learning progress.
	localDoc, err := snapshot.Export(context.Background(), store, project.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	remoteDoc := *localDoc
	remoteDoc.Sentences = append([]snapshot.SentenceRecord(nil), localDoc.Sentences...)
	remoteDoc.Sentences[0].Learned = true
	remoteDoc.Sentences[0].LearnCount = 3
	remote.docs[project.ID] = remoteDoc

	result, err := engine.Download(context.Background(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Merged) != 1 || result.Merged[0] != project.ID {
		t.Fatalf("unexpected merges: %v", result.Merged)
	}
	if len(result.New) != 0 {
		t.Fatalf("unexpected new projects: %v", result.New)
	}

	sentences, err := store.SentencesByProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("SentencesByProject: %v", err)
	}
	if !sentences[0].Learned || sentences[0].LearnCount != 3 {
		t.Fatalf("remote learning progress lost: %+v", sentences[0])
	}
}

func TestDownloadCapturesPerProjectErrors(t *testing.T) {
	engine, _, remote, _ := newEngineFixture(t)
	remote.docs["broken"] = snapshot.Document{ID: "broken"}
	remote.docErrs["broken"] = errors.New("corrupt snapshot")

	result, err := engine.Download(context.Background(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].ProjectID != "broken" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestDownloadFiltersByID(t *testing.T) {
	engine, store, remote, _ := newEngineFixture(t)
	for _, id := range []string{"keep", "skip"} {
		remote.docs[id] = snapshot.Document{
			ID: id, Name: id, Status: "ready",
			CreatedAt: "2026-08-01T10:00:00Z", UpdatedAt: "2026-08-01T10:00:00Z",
		}
	}

	result, err := engine.Download(context.Background(), []string{"keep"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(result.Downloaded) != 1 || result.Downloaded[0] != "keep" {
		t.Fatalf("unexpected downloads: %v", result.Downloaded)
	}
	if project, _ := store.GetProject(context.Background(), "skip"); project != nil {
		t.Fatal("filtered project was imported")
	}
}

func TestUploadListFailureIsSyncError(t *testing.T) {
	engine, _, remote, _ := newEngineFixture(t)
	remote.listErr = errors.New("unreachable")

	if _, err := engine.Download(context.Background(), nil); !errors.Is(err, services.ErrSync) {
		t.Fatalf("error %v does not wrap ErrSync", err)
	}
}
