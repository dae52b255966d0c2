package queue

import (
	"context"
	"encoding/json"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"

	"github.com/berryware/berryrag/internal/storage"
	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/rag"
)

// ProcessDeleteMessage removes a document with its chunks from the
// store and clears its archived sources.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	engine *rag.Engine,
	ch *amqp091.Channel,
	msg string,
) error {
	job := new(DeleteJob)
	if err := json.Unmarshal([]byte(msg), job); err != nil {
		return err
	}
	if job.DocumentID == "" {
		return common.Validationf("document_id", "must not be empty")
	}

	if err := engine.Storage().DeleteDocument(ctx, job.DocumentID); err != nil {
		return err
	}

	if s3Client != nil {
		if err := storage.DeleteDocumentArchive(ctx, s3Client, job.DocumentID); err != nil {
			logger.Warn("[Queue][Delete] Archive cleanup failed",
				"request_id", job.RequestID, "document_id", job.DocumentID, "err", err)
		}
	}

	logger.Info("[Queue][Delete] Document deleted",
		"request_id", job.RequestID, "document_id", job.DocumentID)

	publishCompleted(ch, "delete.completed", CompletedEvent{
		RequestID:  job.RequestID,
		DocumentID: job.DocumentID,
	})
	return nil
}
