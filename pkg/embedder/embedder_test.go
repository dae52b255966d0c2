package embedder

import (
	"context"
	"testing"
)

type fixedProvider struct {
	dim int
}

func (p fixedProvider) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = make([]float32, p.dim)
	}
	return out, nil
}

func (p fixedProvider) Dimension() int { return p.dim }
func (p fixedProvider) Name() string   { return "fixed" }

func TestEmbedOne(t *testing.T) {
	vec, err := EmbedOne(context.Background(), fixedProvider{dim: 8}, "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(vec))
	}
}

func TestIsFallbackNonFallback(t *testing.T) {
	if IsFallback(fixedProvider{dim: 4}) {
		t.Fatal("expected plain provider to not report as fallback")
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		dim  int
		want int
	}{
		{"exact", []float32{1, 2, 3}, 3, 3},
		{"truncate", []float32{1, 2, 3, 4}, 2, 2},
		{"pad", []float32{1}, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pad(tt.in, tt.dim)
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
			for i := range got {
				if i < len(tt.in) && i < tt.dim {
					if got[i] != tt.in[i] {
						t.Fatalf("expected %v at %d, got %v", tt.in[i], i, got[i])
					}
				} else if got[i] != 0 {
					t.Fatalf("expected zero padding at %d, got %v", i, got[i])
				}
			}
		})
	}
}
