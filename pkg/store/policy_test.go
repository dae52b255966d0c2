package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/berryware/berryrag/pkg/common"
)

func prose(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("This sentence carries enough words to count as meaningful content. ")
	}
	return strings.TrimSpace(b.String())
}

func TestCheckAcceptsProse(t *testing.T) {
	policy := DefaultContentPolicy()
	if err := policy.Check(prose(5)); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestCheckRejections(t *testing.T) {
	policy := DefaultContentPolicy()
	tests := []struct {
		name string
		text string
	}{
		{"too short", "tiny"},
		{"too few words", strings.Repeat("abcdefghij", 20)},
		{"navigation only", "Home. Back. Next. Menu. Home. Back. Next. Menu. Home. Back. Next. Menu. Home. Back. Next. Menu. Home. Back. Next. Menu."},
		{"repetitive lines", strings.Repeat("This exact line repeats itself over and over again today.\n", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(tt.text)
			if err == nil {
				t.Fatal("expected rejection, got acceptance")
			}
			var ve *common.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestCheckMaxChars(t *testing.T) {
	policy := DefaultContentPolicy()
	policy.MaxChars = 200
	if err := policy.Check(prose(10)); err == nil {
		t.Fatal("expected rejection of over-long content")
	}
}

func TestCheckRepetitiveBelowLineThreshold(t *testing.T) {
	// Few lines never trip the unique-line rule even when identical.
	policy := DefaultContentPolicy()
	text := strings.Repeat("This exact line repeats itself over and over again, carrying plenty of words. ", 3) + "\n" +
		"This exact line repeats itself once more! Another sentence follows here? And a closing one."
	if err := policy.Check(text); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}
