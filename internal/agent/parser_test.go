package agent

import (
	"testing"
)

func TestExtractTaggedBlock(t *testing.T) {
	raw := "preamble\n<jsonOutput>\n{\"a\":1}\n</jsonOutput>\ntrailer"
	got := ExtractTaggedBlock(raw, "jsonOutput")
	if got != `{"a":1}` {
		t.Fatalf("expected inner content, got %q", got)
	}
}

func TestExtractTaggedBlockTrimsWhitespace(t *testing.T) {
	raw := "<jsonOutput>\n  \n{\"a\":1}  \n\n</jsonOutput>"
	got := ExtractTaggedBlock(raw, "jsonOutput")
	if got != `{"a":1}` {
		t.Fatalf("expected trimmed content, got %q", got)
	}
}

func TestExtractTaggedBlockMissing(t *testing.T) {
	if got := ExtractTaggedBlock(`{"a":1}`, "jsonOutput"); got != "" {
		t.Fatalf("expected empty string for missing tag, got %q", got)
	}
	// Opening tag without newline does not count.
	if got := ExtractTaggedBlock(`<jsonOutput>{"a":1}</jsonOutput>`, "jsonOutput"); got != "" {
		t.Fatalf("expected empty string for inline tag, got %q", got)
	}
}

func TestRepairParseTaggedBlock(t *testing.T) {
	raw := "<jsonOutput>\n{\"a\":1}\n</jsonOutput>"
	var v map[string]int
	if err := RepairParse(raw, "jsonOutput", &v); err != nil {
		t.Fatalf("RepairParse: %v", err)
	}
	if v["a"] != 1 {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestRepairParseFallbackStripsFences(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	var v map[string]int
	if err := RepairParse(raw, "jsonOutput", &v); err != nil {
		t.Fatalf("RepairParse: %v", err)
	}
	if v["a"] != 1 {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestRepairParseMalformed(t *testing.T) {
	var v map[string]interface{}
	if err := RepairParse("not json at all", "jsonOutput", &v); err == nil {
		t.Fatal("expected hard failure on malformed content")
	}
}
