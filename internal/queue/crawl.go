package queue

import (
	"context"
	"encoding/json"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"

	"github.com/berryware/berryrag/internal/storage"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/crawler"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/rag"
)

// ProcessCrawlMessage runs a crawl and, when the job asks for it,
// ingests the extracted pages and archives their HTML snapshots. Each
// job gets its own fetcher so snapshot uploads can reuse the fetch
// cache instead of hitting the site a second time.
func ProcessCrawlMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	engine *rag.Engine,
	ch *amqp091.Channel,
	msg string,
) error {
	job := new(CrawlJob)
	if err := json.Unmarshal([]byte(msg), job); err != nil {
		return err
	}

	fetcher := crawler.NewHTTPFetcher(crawler.NewHTTPFetcherParams{})
	crawl := crawler.NewCrawler(crawler.NewCrawlerParams{
		Fetcher:   fetcher,
		HostDelay: time.Duration(util.GetEnvInt("CRAWL_HOST_DELAY_MS", 1000)) * time.Millisecond,
	})

	result, err := crawl.Crawl(ctx, crawler.CrawlParams{
		URL:      job.URL,
		Subpages: job.Subpages,
		Keywords: job.Keywords,
		MaxDepth: job.MaxDepth,
	})
	if err != nil {
		return err
	}

	tally := make(map[crawler.NodeState]int, 4)
	for _, node := range result.Nodes {
		tally[node.State]++
	}
	progress := util.BuildCrawlProgress(job.Subpages,
		tally[crawler.NodePending], tally[crawler.NodeFetching],
		tally[crawler.NodeExtracted], tally[crawler.NodeFailed])

	logger.Info("[Queue][Crawl] Crawl finished",
		"request_id", job.RequestID, "url", job.URL,
		"successful", result.Metadata.SuccessfulCrawls,
		"failed", result.Metadata.FailedCrawls,
		"percentage", progress.Percentage,
		"duration_ms", result.Metadata.DurationMs)

	if !job.Ingest {
		return nil
	}

	event := CompletedEvent{RequestID: job.RequestID}
	pages := append([]*crawler.Page{result.Root}, result.Pages()...)
	for _, page := range pages {
		added, err := engine.AddDocument(ctx, page.URL, page.Title, page.Text, map[string]any{
			"source":     "crawl",
			"request_id": job.RequestID,
		})
		if err != nil {
			event.Failed++
			logger.Warn("[Queue][Crawl] Page ingest failed",
				"request_id", job.RequestID, "url", page.URL, "err", err)
			continue
		}
		if added.Deduplicated || added.Filtered {
			continue
		}
		event.Stored++
		event.Chunks += added.Chunks
		if event.DocumentID == "" {
			event.DocumentID = added.DocumentID
		}
		archiveSnapshot(ctx, s3Client, fetcher, added.DocumentID, page.URL, job.RequestID)
	}

	publishCompleted(ch, "crawl.completed", event)
	return nil
}

// archiveSnapshot uploads the raw HTML of a stored page. The fetcher
// already holds the body in its cache, so this never refetches.
func archiveSnapshot(ctx context.Context, s3Client *awss3.Client, fetcher crawler.Fetcher, documentID, pageURL, requestID string) {
	if s3Client == nil {
		return
	}
	rawHTML, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		logger.Warn("[Queue][Crawl] Snapshot fetch failed",
			"request_id", requestID, "url", pageURL, "err", err)
		return
	}
	if _, err := storage.PutSnapshot(ctx, s3Client, documentID, rawHTML); err != nil {
		logger.Warn("[Queue][Crawl] Snapshot upload failed",
			"request_id", requestID, "document_id", documentID, "err", err)
	}
}
