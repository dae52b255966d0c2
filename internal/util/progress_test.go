package util

import "testing"

func TestBuildCrawlProgress(t *testing.T) {
	tests := []struct {
		name           string
		budget         int
		pending        int
		fetching       int
		extracted      int
		failed         int
		wantPercentage int32
		wantExtracted  string
		wantFailed     string
	}{
		{
			name:           "empty run is complete",
			wantPercentage: 100,
		},
		{
			name:           "halfway through budget",
			budget:         10,
			pending:        4,
			fetching:       1,
			extracted:      4,
			failed:         1,
			wantPercentage: 50,
			wantExtracted:  "4/10",
			wantFailed:     "1/10",
		},
		{
			name:           "failures still count as done",
			budget:         4,
			extracted:      2,
			failed:         2,
			wantPercentage: 100,
			wantExtracted:  "2/4",
			wantFailed:     "2/4",
		},
		{
			name:           "no budget uses node total",
			pending:        1,
			extracted:      1,
			wantPercentage: 50,
			wantExtracted:  "1/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCrawlProgress(tt.budget, tt.pending, tt.fetching, tt.extracted, tt.failed)
			if got.Percentage != tt.wantPercentage {
				t.Fatalf("expected %d%%, got %d%%", tt.wantPercentage, got.Percentage)
			}
			if tt.wantExtracted == "" && tt.wantFailed == "" {
				if got.Step != nil {
					t.Fatalf("expected no step detail, got %+v", got.Step)
				}
				return
			}
			if got.Step == nil {
				t.Fatal("expected step detail, got nil")
			}
			if got.Step.Extracted != tt.wantExtracted {
				t.Fatalf("expected extracted %q, got %q", tt.wantExtracted, got.Step.Extracted)
			}
			if got.Step.Failed != tt.wantFailed {
				t.Fatalf("expected failed %q, got %q", tt.wantFailed, got.Step.Failed)
			}
		})
	}
}
