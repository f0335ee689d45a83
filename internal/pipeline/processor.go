// Package pipeline implements the document ingestion flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexguard-go/internal/config"
	"lexguard-go/internal/metrics"
	"lexguard-go/internal/model"
	"lexguard-go/internal/repository"
	"lexguard-go/internal/service"
	"lexguard-go/pkg/embedding"
	"lexguard-go/pkg/log"
	"lexguard-go/pkg/tasks"

	"golang.org/x/sync/errgroup"
)

// ingestActor labels audit events produced by the pipeline itself.
const ingestActor = "system_ingest"

// previewLen is how many runes of extracted text are kept on the record.
const previewLen = 100

// ObjectStore is the blob read surface the pipeline needs.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// VectorWriter is the write side of the vector index.
type VectorWriter interface {
	BulkUpsert(ctx context.Context, records []model.VectorRecord) error
}

// Processor orchestrates one document ingestion: fetch, extract, chunk,
// embed, index, risk-scan, persist metadata, audit.
type Processor struct {
	store           ObjectStore
	extractor       *Extractor
	embeddingClient embedding.Client
	vectorWriter    VectorWriter
	riskScanner     service.RiskScanner
	docRepo         repository.DocumentRepository
	audit           service.AuditService
	cfg             config.IngestConfig
	defaultCaseID   string
}

// NewProcessor creates a Processor. Zero-valued tunables get defaults
// matching the production configuration.
func NewProcessor(
	store ObjectStore,
	extractor *Extractor,
	embeddingClient embedding.Client,
	vectorWriter VectorWriter,
	riskScanner service.RiskScanner,
	docRepo repository.DocumentRepository,
	audit service.AuditService,
	cfg config.IngestConfig,
	defaultCaseID string,
) *Processor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.MaxFragments <= 0 {
		cfg.MaxFragments = 200
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Processor{
		store:           store,
		extractor:       extractor,
		embeddingClient: embeddingClient,
		vectorWriter:    vectorWriter,
		riskScanner:     riskScanner,
		docRepo:         docRepo,
		audit:           audit,
		cfg:             cfg,
		defaultCaseID:   defaultCaseID,
	}
}

// Process ingests one document. Every failure marks the document Failed
// and returns the error for the consumer's bounded retry; the risk scan is
// the one step allowed to degrade silently. Re-processing the same key is
// safe: vector ids and the metadata row are overwritten in place.
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	log.Infof("[Processor] starting ingestion, bucket=%s key=%s", task.Bucket, task.Key)

	caseID := task.CaseID
	if caseID == "" {
		caseID = p.defaultCaseID
	}

	if _, err := p.audit.Record(ingestActor, model.ActionIngestStart, task.Key, "Started processing document"); err != nil {
		log.Errorf("[Processor] failed to record ingest audit event: %v", err)
	}

	doc := &model.Document{
		DocID:      task.Key,
		CaseID:     caseID,
		UploadedAt: time.Now().UTC(),
		Status:     model.StatusPending,
	}
	if err := p.docRepo.Upsert(doc); err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}

	// 1. Fetch the blob.
	content, err := p.store.Get(ctx, task.Bucket, task.Key)
	if err != nil {
		return p.fail(doc, fmt.Errorf("failed to fetch blob '%s': %w", task.Key, err))
	}

	// 2. Extract text. An unsupported extension is a skip, not a failure:
	// the document stays Pending and nothing is indexed.
	text, err := p.extractor.Extract(content, task.Key)
	if err != nil {
		if errors.Is(err, model.ErrUnsupportedFormat) {
			log.Warnf("[Processor] skipping unsupported file: %s", task.Key)
			return nil
		}
		return p.fail(doc, err)
	}
	if text == "" {
		return p.fail(doc, errors.New("extracted text is empty"))
	}

	// 3. Chunk, bounded per document.
	chunks := SplitText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunks) > p.cfg.MaxFragments {
		log.Warnf("[Processor] capping %d fragments at %d for %s", len(chunks), p.cfg.MaxFragments, task.Key)
		chunks = chunks[:p.cfg.MaxFragments]
	}
	if len(chunks) == 0 {
		return p.fail(doc, errors.New("no fragments produced"))
	}
	log.Infof("[Processor] split '%s' into %d fragments", task.Key, len(chunks))

	// 4. Embed with bounded parallelism. Results land in fragment order
	// regardless of completion order.
	vectors, err := p.embedFragments(ctx, chunks)
	if err != nil {
		return p.fail(doc, err)
	}

	// 5. Upsert in batches, flushing the remainder.
	batch := make([]model.VectorRecord, 0, p.cfg.BatchSize)
	for i, chunk := range chunks {
		batch = append(batch, model.VectorRecord{
			VectorID:      model.FragmentVectorID(task.Key, i),
			DocID:         task.Key,
			CaseID:        caseID,
			FragmentIndex: i,
			TextContent:   chunk,
			Vector:        vectors[i],
		})
		if len(batch) >= p.cfg.BatchSize {
			if err := p.vectorWriter.BulkUpsert(ctx, batch); err != nil {
				return p.fail(doc, fmt.Errorf("failed to upsert vector batch: %w", err))
			}
			metrics.FragmentsIndexed.Add(float64(len(batch)))
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := p.vectorWriter.BulkUpsert(ctx, batch); err != nil {
			return p.fail(doc, fmt.Errorf("failed to upsert vector batch: %w", err))
		}
		metrics.FragmentsIndexed.Add(float64(len(batch)))
	}

	// 6. Risk scan. Best effort; Scan never fails.
	risk := p.riskScanner.Scan(ctx, text)
	log.Infof("[Processor] risk score for '%s': %s", task.Key, risk.Score)

	// 7. Finalize the record.
	doc.Status = model.StatusIndexed
	doc.RiskScore = risk.Score
	doc.RiskFlags = model.StringList(risk.Flags)
	doc.TextPreview = preview(text)
	if err := p.docRepo.Upsert(doc); err != nil {
		return p.fail(doc, fmt.Errorf("failed to finalize document record: %w", err))
	}

	if _, err := p.audit.Record(ingestActor, model.ActionIngestComplete, task.Key,
		fmt.Sprintf("Indexed %d fragments", len(chunks))); err != nil {
		log.Errorf("[Processor] failed to record ingest audit event: %v", err)
	}

	metrics.DocumentsIngested.WithLabelValues("indexed").Inc()
	log.Infof("[Processor] ingestion finished, key=%s fragments=%d", task.Key, len(chunks))
	return nil
}

// embedFragments embeds every chunk through a bounded worker pool and
// verifies each vector against the index dimension.
func (p *Processor) embedFragments(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	dims := p.embeddingClient.Dimensions()
	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := p.embeddingClient.CreateEmbedding(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed fragment %d: %w", i, err)
			}
			if dims > 0 && len(vec) != dims {
				return fmt.Errorf("fragment %d has %d dimensions, index wants %d: %w",
					i, len(vec), dims, model.ErrDimensionMismatch)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *Processor) fail(doc *model.Document, cause error) error {
	log.Errorf("[Processor] ingestion failed for '%s': %v", doc.DocID, cause)
	doc.Status = model.StatusFailed
	if err := p.docRepo.Upsert(doc); err != nil {
		log.Errorf("[Processor] failed to mark document '%s' as failed: %v", doc.DocID, err)
	}
	metrics.DocumentsIngested.WithLabelValues("failed").Inc()
	return cause
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLen {
		runes = runes[:previewLen]
	}
	return string(runes)
}
