package prompts

import (
	"strings"
	"testing"
)

func TestBuildComparisonPrompt(t *testing.T) {
	gt := []byte(`{"invoice":{"client_name":"ACME Corp"}}`)
	out := []byte(`{"invoice":{"client_name":"acme corp "}}`)
	fields := []string{"subtotal.total", "invoice.client_name"}

	p := BuildComparisonPrompt("doc1", gt, out, fields)

	if !strings.Contains(p, `"doc1"`) {
		t.Error("prompt missing invoice name")
	}
	for _, body := range []string{string(gt), string(out)} {
		if !strings.Contains(p, body) {
			t.Errorf("prompt missing embedded body %q", body)
		}
	}
	// Fields must be listed sorted, one per line.
	i := strings.Index(p, "- invoice.client_name")
	j := strings.Index(p, "- subtotal.total")
	if i < 0 || j < 0 || i > j {
		t.Errorf("deal-breaker list wrong or unsorted: i=%d j=%d", i, j)
	}
	// The input slice must not be reordered.
	if fields[0] != "subtotal.total" {
		t.Error("caller's field slice was mutated")
	}
}
