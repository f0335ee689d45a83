package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"lexguard-go/internal/config"
	"lexguard-go/internal/model"
	"lexguard-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	objects map[string][]byte
}

func (s *fakeStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object '%s': %w", key, model.ErrNotFound)
	}
	return data, nil
}

type fakeEmbedder struct {
	dims    int
	badDims bool
	calls   int
}

func (e *fakeEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	dims := e.dims
	if e.badDims {
		dims = e.dims + 1
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(len(text) % 7)
	}
	return vec, nil
}

func (e *fakeEmbedder) Dimensions() int { return e.dims }

type fakeVectorWriter struct {
	batches [][]model.VectorRecord
	failAll bool
}

func (w *fakeVectorWriter) BulkUpsert(ctx context.Context, records []model.VectorRecord) error {
	if w.failAll {
		return fmt.Errorf("index unreachable")
	}
	batch := make([]model.VectorRecord, len(records))
	copy(batch, records)
	w.batches = append(w.batches, batch)
	return nil
}

func (w *fakeVectorWriter) all() []model.VectorRecord {
	var out []model.VectorRecord
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

type fakeRiskScanner struct {
	result model.RiskResult
}

func (s *fakeRiskScanner) Scan(ctx context.Context, text string) model.RiskResult {
	return s.result
}

type fakeDocRepo struct {
	docs map[string]model.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]model.Document{}}
}

func (r *fakeDocRepo) Upsert(doc *model.Document) error {
	r.docs[doc.DocID] = *doc
	return nil
}

func (r *fakeDocRepo) FindByID(docID string) (*model.Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &doc, nil
}

func (r *fakeDocRepo) FindAll() ([]model.Document, error) {
	var out []model.Document
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, nil
}

type fakeAudit struct {
	actions []string
}

func (a *fakeAudit) Record(actorID, action, resource, details string) (*model.AuditEvent, error) {
	a.actions = append(a.actions, action)
	return &model.AuditEvent{Action: action}, nil
}

func (a *fakeAudit) List(limit int, caseID string) ([]model.AuditEvent, error) {
	return nil, nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		ChunkSize:    50,
		ChunkOverlap: 10,
		MaxFragments: 200,
		BatchSize:    3,
		Workers:      2,
	}
}

func newTestProcessor(store *fakeStore, embedder *fakeEmbedder, writer *fakeVectorWriter,
	repo *fakeDocRepo, audit *fakeAudit, cfg config.IngestConfig) *Processor {
	return NewProcessor(
		store,
		NewExtractor(nil),
		embedder,
		writer,
		&fakeRiskScanner{result: model.RiskResult{Score: model.RiskMedium, Flags: []string{"Unlimited liability clause"}}},
		repo,
		audit,
		cfg,
		"case-test",
	)
}

func TestProcessIndexesDocument(t *testing.T) {
	text := strings.Repeat("This agreement may be terminated for convenience. ", 10)
	store := &fakeStore{objects: map[string][]byte{"contract.txt": []byte(text)}}
	embedder := &fakeEmbedder{dims: 4}
	writer := &fakeVectorWriter{}
	repo := newFakeDocRepo()
	audit := &fakeAudit{}

	p := newTestProcessor(store, embedder, writer, repo, audit, testIngestConfig())
	err := p.Process(context.Background(), tasks.IngestTask{Bucket: "b", Key: "contract.txt"})
	require.NoError(t, err)

	doc, err := repo.FindByID("contract.txt")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIndexed, doc.Status)
	assert.Equal(t, "case-test", doc.CaseID)
	assert.Equal(t, model.RiskMedium, doc.RiskScore)
	assert.Equal(t, []string{"Unlimited liability clause"}, []string(doc.RiskFlags))
	assert.NotEmpty(t, doc.TextPreview)

	records := writer.all()
	require.NotEmpty(t, records)
	assert.Equal(t, len(records), embedder.calls)

	// Every fragment got embedded and indexed with its deterministic id.
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("contract.txt#%d", i), rec.VectorID)
		assert.Equal(t, "contract.txt", rec.DocID)
		assert.Len(t, rec.Vector, 4)
	}

	assert.Equal(t, []string{model.ActionIngestStart, model.ActionIngestComplete}, audit.actions)
}

func TestProcessBatchesUpserts(t *testing.T) {
	// 7 fragments with batch size 3 means batches of 3, 3 and a remainder
	// of 1.
	cfg := testIngestConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0

	text := strings.Repeat("x", 70)
	store := &fakeStore{objects: map[string][]byte{"doc.txt": []byte(text)}}
	writer := &fakeVectorWriter{}

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, writer, newFakeDocRepo(), &fakeAudit{}, cfg)
	require.NoError(t, p.Process(context.Background(), tasks.IngestTask{Key: "doc.txt"}))

	require.Len(t, writer.batches, 3)
	assert.Len(t, writer.batches[0], 3)
	assert.Len(t, writer.batches[1], 3)
	assert.Len(t, writer.batches[2], 1)
}

func TestProcessCapsFragments(t *testing.T) {
	cfg := testIngestConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0
	cfg.MaxFragments = 5

	text := strings.Repeat("y", 500)
	store := &fakeStore{objects: map[string][]byte{"big.txt": []byte(text)}}
	writer := &fakeVectorWriter{}

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, writer, newFakeDocRepo(), &fakeAudit{}, cfg)
	require.NoError(t, p.Process(context.Background(), tasks.IngestTask{Key: "big.txt"}))

	assert.Len(t, writer.all(), 5)
}

func TestProcessMissingBlobFails(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	repo := newFakeDocRepo()

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, &fakeVectorWriter{}, repo, &fakeAudit{}, testIngestConfig())
	err := p.Process(context.Background(), tasks.IngestTask{Key: "gone.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)

	doc, err := repo.FindByID("gone.txt")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, doc.Status)
}

func TestProcessSkipsUnsupportedFormat(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"image.png": {0x89, 0x50}}}
	repo := newFakeDocRepo()
	writer := &fakeVectorWriter{}

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, writer, repo, &fakeAudit{}, testIngestConfig())
	err := p.Process(context.Background(), tasks.IngestTask{Key: "image.png"})

	// A skip is not a failure: nothing indexed, no error, document left
	// Pending.
	require.NoError(t, err)
	assert.Empty(t, writer.all())
	doc, err := repo.FindByID("image.png")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, doc.Status)
}

func TestProcessDimensionMismatchFails(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"doc.txt": []byte("some contract text")}}
	repo := newFakeDocRepo()

	p := newTestProcessor(store, &fakeEmbedder{dims: 4, badDims: true}, &fakeVectorWriter{}, repo, &fakeAudit{}, testIngestConfig())
	err := p.Process(context.Background(), tasks.IngestTask{Key: "doc.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)

	doc, err := repo.FindByID("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, doc.Status)
}

func TestProcessIndexFailureFails(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"doc.txt": []byte("some contract text")}}
	repo := newFakeDocRepo()

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, &fakeVectorWriter{failAll: true}, repo, &fakeAudit{}, testIngestConfig())
	err := p.Process(context.Background(), tasks.IngestTask{Key: "doc.txt"})
	require.Error(t, err)

	doc, err := repo.FindByID("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, doc.Status)
}

func TestProcessReingestOverwrites(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"doc.txt": []byte("first version of the text")}}
	writer := &fakeVectorWriter{}
	repo := newFakeDocRepo()

	p := newTestProcessor(store, &fakeEmbedder{dims: 4}, writer, repo, &fakeAudit{}, testIngestConfig())
	require.NoError(t, p.Process(context.Background(), tasks.IngestTask{Key: "doc.txt"}))
	firstIDs := writer.all()

	store.objects["doc.txt"] = []byte("second version of the text")
	require.NoError(t, p.Process(context.Background(), tasks.IngestTask{Key: "doc.txt"}))

	// Same key, same fragment count, same deterministic ids: the second run
	// overwrites rather than duplicates.
	second := writer.all()[len(firstIDs):]
	require.Len(t, second, len(firstIDs))
	for i := range second {
		assert.Equal(t, firstIDs[i].VectorID, second[i].VectorID)
	}
}
