package queue

import (
	"context"
	"encoding/json"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/leaselock"
	"github.com/berryware/berryrag/pkg/loader"
	csvloader "github.com/berryware/berryrag/pkg/loader/csv"
	docloader "github.com/berryware/berryrag/pkg/loader/doc"
	pdfloader "github.com/berryware/berryrag/pkg/loader/pdf"
	s3loader "github.com/berryware/berryrag/pkg/loader/s3"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/rag"
)

// loaderForKey picks the extraction loader for an archive key by its
// extension, stacked on the S3 base loader.
func loaderForKey(base *s3loader.S3SourceLoader, key string) loader.SourceLoader {
	switch loader.TypeForPath(key) {
	case loader.FileTypeCSV:
		return csvloader.NewCSVLoader(base)
	case loader.FileTypePDF:
		return pdfloader.NewPDFLoader(base)
	case loader.FileTypeDoc:
		return docloader.NewDocLoader(base)
	default:
		return base
	}
}

// ProcessIngestMessage loads an archived source file, extracts its text
// and stores it in the retrieval engine. A lease on the source key
// keeps concurrent workers from ingesting the same upload twice.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	engine *rag.Engine,
	locks *leaselock.Client,
	ch *amqp091.Channel,
	msg string,
) error {
	job := new(IngestJob)
	if err := json.Unmarshal([]byte(msg), job); err != nil {
		return err
	}
	if job.SourceKey == "" {
		return common.Validationf("source_key", "must not be empty")
	}

	bucket := util.GetEnvString("AWS_BUCKET", "berryrag")
	base := s3loader.NewS3SourceLoaderWithClient(bucket, s3Client)
	file := loader.NewSourceFile(loader.NewSourceFileParams{
		ID:       job.RequestID,
		FilePath: job.SourceKey,
		Loader:   loaderForKey(base, job.SourceKey),
	})

	text, err := file.GetText(ctx)
	if err != nil {
		return err
	}

	ingest := func(ctx context.Context) error {
		sourceURL := job.SourceURL
		if sourceURL == "" {
			sourceURL = "s3://" + bucket + "/" + job.SourceKey
		}
		metadata := make(map[string]any, len(job.Metadata)+1)
		for k, v := range job.Metadata {
			metadata[k] = v
		}
		// Recorded so the archived original stays traceable from the
		// stored document.
		metadata["source_key"] = job.SourceKey
		result, err := engine.AddDocument(ctx, sourceURL, job.Title, string(text), metadata)
		if err != nil {
			return err
		}
		logger.Info("[Queue][Ingest] Source ingested",
			"request_id", job.RequestID, "source_key", job.SourceKey,
			"document_id", result.DocumentID, "chunks", result.Chunks,
			"deduplicated", result.Deduplicated, "filtered", result.Filtered)

		publishCompleted(ch, "ingest.completed", CompletedEvent{
			RequestID:  job.RequestID,
			DocumentID: result.DocumentID,
			Chunks:     result.Chunks,
		})
		return nil
	}

	if locks == nil {
		return ingest(ctx)
	}
	return locks.WithLease(ctx, "ingest:"+job.SourceKey, leaselock.Options{
		TTL:  10 * time.Minute,
		Wait: true,
	}, ingest)
}

func publishCompleted(ch *amqp091.Channel, topic string, event CompletedEvent) {
	if ch == nil {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := PublishTopic(ch, topic, raw); err != nil {
		logger.Warn("[Queue] Failed to publish completion event", "topic", topic, "err", err)
	}
}
