package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFenceRe  = regexp.MustCompile("(?m)^```json\\s*")
	trailingFenceRe = regexp.MustCompile("(?m)\\s*```$")
)

// ExtractTaggedBlock returns the content between `<tag>\n` and `\n</tag>`,
// with surrounding spaces and newlines trimmed from both ends. It returns ""
// when no complete tagged block is present.
func ExtractTaggedBlock(raw, tag string) string {
	startTag := "<" + tag + ">\n"
	endTag := "\n</" + tag + ">"
	start := strings.Index(raw, startTag)
	if start == -1 {
		return ""
	}
	start += len(startTag)
	end := strings.Index(raw[start:], endTag)
	if end == -1 {
		return ""
	}
	return strings.Trim(raw[start:start+end], " \n")
}

// RepairParse extracts a structured value from raw, possibly malformed model
// output. It prefers a tagged block, falls back to the whole response, strips
// markdown code fences, and unmarshals the remainder as JSON. A structural
// failure after cleanup is a hard error for the caller to retry.
func RepairParse(raw, tag string, v interface{}) error {
	content := ExtractTaggedBlock(raw, tag)
	if content == "" {
		// Some models emit bare JSON without the tag.
		content = raw
	}
	content = leadingFenceRe.ReplaceAllString(content, "")
	content = trailingFenceRe.ReplaceAllString(content, "")
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}
	return nil
}
