package util

import "fmt"

// CrawlStepProgress holds human-readable "done/total" tallies for the
// stages of one crawl run. Empty fields are omitted from JSON so status
// payloads only show stages that have started.
type CrawlStepProgress struct {
	Pending   string `json:"pending,omitempty"`
	Fetching  string `json:"fetching,omitempty"`
	Extracted string `json:"extracted,omitempty"`
	Failed    string `json:"failed,omitempty"`
}

// CrawlProgress is the progress snapshot of one crawl-and-ingest job.
type CrawlProgress struct {
	Step       *CrawlStepProgress `json:"step,omitempty"`
	Percentage int32              `json:"percentage"`
}

// BuildCrawlProgress summarises node tallies against the requested
// subpage budget. The root page counts toward neither budget nor
// percentage; it is a precondition of the run.
func BuildCrawlProgress(budget, pending, fetching, extracted, failed int) CrawlProgress {
	total := extracted + failed + pending + fetching
	if budget > 0 {
		total = budget
	}
	if total <= 0 {
		return CrawlProgress{Percentage: 100}
	}

	step := CrawlStepProgress{}
	hasStep := false
	if pending > 0 {
		step.Pending = fmt.Sprintf("%d/%d", pending, total)
		hasStep = true
	}
	if fetching > 0 {
		step.Fetching = fmt.Sprintf("%d/%d", fetching, total)
		hasStep = true
	}
	if extracted > 0 {
		step.Extracted = fmt.Sprintf("%d/%d", extracted, total)
		hasStep = true
	}
	if failed > 0 {
		step.Failed = fmt.Sprintf("%d/%d", failed, total)
		hasStep = true
	}

	progress := CrawlProgress{}
	if hasStep {
		progress.Step = &step
	}

	done := extracted + failed
	if done >= total {
		progress.Percentage = 100
	} else {
		progress.Percentage = int32(done * 100 / total)
	}
	return progress
}
