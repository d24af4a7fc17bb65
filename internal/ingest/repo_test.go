package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/bull/docchat-server/internal/github"
)

type fakeSource struct {
	docs     map[string]string
	shas     map[string]string
	paths    []string
	fetchErr map[string]error
	listErr  error
	commit   string
}

func (f *fakeSource) ListDocs(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.paths, nil
}

func (f *fakeSource) FetchDoc(_ context.Context, relativePath string) (*github.FetchedDoc, error) {
	if err := f.fetchErr[relativePath]; err != nil {
		return nil, err
	}
	return &github.FetchedDoc{
		Path:    relativePath,
		Content: f.docs[relativePath],
		SHA:     f.shas[relativePath],
	}, nil
}

func (f *fakeSource) GetLatestCommitSHA(_ context.Context) (string, error) {
	if f.commit == "" {
		return "", errors.New("no commits")
	}
	return f.commit, nil
}

func TestIngestRepo(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	in := newTestIngester(idx, cat)

	source := &fakeSource{
		paths: []string{"a.md", "b.txt", "broken.md"},
		docs: map[string]string{
			"a.md":  "# Title\n\nsection content here",
			"b.txt": "plain text content",
		},
		shas:     map[string]string{"a.md": "sha-a", "b.txt": "sha-b"},
		fetchErr: map[string]error{"broken.md": errors.New("404")},
		commit:   "commit-1",
	}

	result, err := in.IngestRepo(context.Background(), source)
	if err != nil {
		t.Fatalf("IngestRepo: %v", err)
	}
	if result.TotalDocs != 3 || result.SuccessfulDocs != 2 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(result.FailedDocs) != 1 || result.FailedDocs[0].Path != "broken.md" {
		t.Errorf("unexpected failures: %v", result.FailedDocs)
	}
	if result.TotalChunks == 0 {
		t.Error("expected chunks counted")
	}
	if len(cat.docs) != 2 {
		t.Errorf("expected 2 catalog rows, got %d", len(cat.docs))
	}
	if result.CommitSHA != "commit-1" {
		t.Errorf("expected commit recorded, got %q", result.CommitSHA)
	}
}

func TestIngestRepo_SkipsUnchangedFiles(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	in := newTestIngester(idx, cat)
	ctx := context.Background()

	source := &fakeSource{
		paths: []string{"a.md", "b.txt"},
		docs: map[string]string{
			"a.md":  "# Title\n\nsection content here",
			"b.txt": "plain text content",
		},
		shas:   map[string]string{"a.md": "sha-a", "b.txt": "sha-b"},
		commit: "commit-1",
	}

	first, err := in.IngestRepo(ctx, source)
	if err != nil {
		t.Fatalf("IngestRepo: %v", err)
	}
	if first.SuccessfulDocs != 2 || first.SkippedDocs != 0 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	// nothing changed upstream, so the second run embeds nothing
	second, err := in.IngestRepo(ctx, source)
	if err != nil {
		t.Fatalf("IngestRepo: %v", err)
	}
	if second.SkippedDocs != 2 || second.SuccessfulDocs != 0 {
		t.Errorf("unchanged files not skipped: %+v", second)
	}

	// one edited file is re-ingested, the other still skipped
	source.docs["a.md"] = "# Title\n\nrewritten section"
	source.shas["a.md"] = "sha-a2"
	third, err := in.IngestRepo(ctx, source)
	if err != nil {
		t.Fatalf("IngestRepo: %v", err)
	}
	if third.SuccessfulDocs != 1 || third.SkippedDocs != 1 {
		t.Errorf("changed file not re-ingested: %+v", third)
	}
	if cat.docs[DocumentID("a.md")].SourceSHA != "sha-a2" {
		t.Errorf("catalog SHA not updated: %+v", cat.docs[DocumentID("a.md")])
	}
}

func TestIngestRepo_ListFailure(t *testing.T) {
	in := newTestIngester(newFakeIndex(), newFakeCatalog())
	listErr := errors.New("rate limited")

	if _, err := in.IngestRepo(context.Background(), &fakeSource{listErr: listErr}); !errors.Is(err, listErr) {
		t.Fatalf("expected list error, got %v", err)
	}
}
