package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON unmarshals model output into v. Markdown code fences and prose
// around the outermost JSON object or array are stripped; on a syntax error
// the text is repaired once with jsonrepair before giving up. Output without
// any object or array is ErrEmptyResponse.
func DecodeJSON(text string, v any) error {
	body := extractJSON(text)
	if body == "" {
		return fmt.Errorf("decode model output: %w", ErrEmptyResponse)
	}
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return fmt.Errorf("decode model output: %w", err)
	}
	fixed, repairErr := jsonrepair.JSONRepair(body)
	if repairErr != nil {
		return fmt.Errorf("decode model output: %w (repair failed: %v)", err, repairErr)
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("decode repaired model output: %w", err)
	}
	return nil
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(s, closer); end > start {
		return s[start : end+1]
	}
	return s[start:]
}
