package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riverai-be/pkg/embedding"
	"riverai-be/pkg/knowledge"
	"riverai-be/pkg/pdf"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func fakeExtract(path string) ([]pdf.PageText, error) {
	return []pdf.PageText{
		{Page: 1, Text: "shoreline erosion measurements"},
		{Page: 2, Text: "water level history"},
	}, nil
}

func newIngestionFixture(t *testing.T, files ...string) (*ingestionService, *fakeUowFactory, *capturePublisher) {
	t.Helper()

	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}

	factory := newFakeUowFactory()
	store, err := knowledge.NewStore(factory, fixedEmbedder{}, nopLogger{})
	require.NoError(t, err)

	publisher := &capturePublisher{}
	svc := NewIngestionService(factory, store, publisher, dir, nopLogger{}).(*ingestionService)
	svc.extract = fakeExtract
	return svc, factory, publisher
}

func TestScan_RegistersAndIngests(t *testing.T) {
	svc, factory, publisher := newIngestionFixture(t, "report.pdf")

	summary, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"report.pdf"}, summary.Files)
	assert.Equal(t, 2, summary.Chunks)

	record := factory.uow.records["report.pdf"]
	require.NotNil(t, record)
	assert.True(t, record.Ingested)
	require.NotNil(t, record.IngestedAt)
	assert.Len(t, factory.uow.embeddings, 2)
	assert.Len(t, publisher.payloads, 1)
}

func TestScan_SecondScanIsNoOp(t *testing.T) {
	svc, factory, _ := newIngestionFixture(t, "report.pdf")

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)
	firstIngestedAt := factory.uow.records["report.pdf"].IngestedAt

	summary, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, summary.Files)
	assert.Zero(t, summary.Chunks)
	assert.Len(t, factory.uow.records, 1)
	assert.Equal(t, firstIngestedAt, factory.uow.records["report.pdf"].IngestedAt)
	assert.Len(t, factory.uow.embeddings, 2)
}

func TestScan_FailedFileStaysRegisteredBatchContinues(t *testing.T) {
	svc, factory, publisher := newIngestionFixture(t, "bad.pdf", "good.pdf")
	svc.extract = func(path string) ([]pdf.PageText, error) {
		if filepath.Base(path) == "bad.pdf" {
			return nil, errors.New("corrupt xref table")
		}
		return fakeExtract(path)
	}

	summary, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"good.pdf"}, summary.Files)

	bad := factory.uow.records["bad.pdf"]
	require.NotNil(t, bad)
	assert.False(t, bad.Ingested)
	assert.Nil(t, bad.IngestedAt)

	good := factory.uow.records["good.pdf"]
	require.NotNil(t, good)
	assert.True(t, good.Ingested)

	// One failure message, one success message.
	require.Len(t, publisher.payloads, 2)
	var failed IngestedMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &failed))
	assert.Equal(t, "bad.pdf", failed.Filename)
	assert.Contains(t, failed.Error, "corrupt xref table")
}

func TestScan_FailedFileRetriedNextScan(t *testing.T) {
	svc, factory, _ := newIngestionFixture(t, "flaky.pdf")
	calls := 0
	svc.extract = func(path string) ([]pdf.PageText, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient read failure")
		}
		return fakeExtract(path)
	}

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.False(t, factory.uow.records["flaky.pdf"].Ingested)

	summary, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"flaky.pdf"}, summary.Files)
	assert.True(t, factory.uow.records["flaky.pdf"].Ingested)
}

func TestScan_NonPdfIgnored(t *testing.T) {
	svc, factory, _ := newIngestionFixture(t, "notes.txt", "data.csv")

	summary, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, summary.Files)
	assert.Empty(t, factory.uow.records)
}

func TestIsIngested_FollowsLedgerState(t *testing.T) {
	svc, _, _ := newIngestionFixture(t, "report.pdf")

	done, err := svc.IsIngested(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = svc.Scan(context.Background())
	require.NoError(t, err)

	done, err = svc.IsIngested(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestScan_ReingestReplacesChunks(t *testing.T) {
	svc, factory, _ := newIngestionFixture(t, "report.pdf")

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, factory.uow.embeddings, 2)

	// Force a re-attempt; the upsert must replace, not append.
	factory.uow.records["report.pdf"].Ingested = false
	factory.uow.records["report.pdf"].IngestedAt = nil

	_, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, factory.uow.embeddings, 2)
}
