package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/bull/docchat-server/internal/github"
)

// Source lists and fetches documents from a remote repository. Implemented
// by github.Fetcher.
type Source interface {
	ListDocs(ctx context.Context) ([]string, error)
	FetchDoc(ctx context.Context, relativePath string) (*github.FetchedDoc, error)
	GetLatestCommitSHA(ctx context.Context) (string, error)
}

// RepoResult contains statistics about a bulk repository ingestion.
type RepoResult struct {
	TotalDocs      int
	SuccessfulDocs int
	SkippedDocs    int
	TotalChunks    int
	FailedDocs     []FailedDoc
	CommitSHA      string
	Duration       time.Duration
}

// FailedDoc records a document that could not be ingested.
type FailedDoc struct {
	Path   string
	Reason string
}

// IngestRepo fetches every ingestible file from the source and ingests each
// one. Files whose blob SHA matches the catalog's recorded version are
// skipped; a document that fails is recorded and the rest continue.
func (in *Ingester) IngestRepo(ctx context.Context, source Source) (*RepoResult, error) {
	start := time.Now()
	result := &RepoResult{}

	commit, err := source.GetLatestCommitSHA(ctx)
	if err != nil {
		in.logger.Warn("Could not resolve latest commit", "error", err)
	}
	result.CommitSHA = commit

	paths, err := source.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	result.TotalDocs = len(paths)
	in.logger.Info("Found documents", "count", len(paths), "commit", commit)

	for _, path := range paths {
		fetched, err := source.FetchDoc(ctx, path)
		if err != nil {
			in.logger.Warn("Failed to fetch document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: path, Reason: err.Error()})
			continue
		}

		res, err := in.ingestVersion(ctx, fetched.Path, fetched.Content, fetched.SHA)
		if err != nil {
			in.logger.Warn("Failed to ingest document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: path, Reason: err.Error()})
			continue
		}
		if res.Skipped {
			result.SkippedDocs++
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += res.ChunkCount
	}

	result.Duration = time.Since(start)
	in.logger.Info("Repository ingestion complete",
		"successful", result.SuccessfulDocs,
		"skipped", result.SkippedDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}
