package brain

import "strings"

// StripThinkBlocks removes all <think>...</think> blocks from s. Reasoning
// models emit these around their real output; kept verbatim from the
// teacher's internal/llm.Client since it's a pure string transform with
// no dependency on the streaming-vs-non-streaming transport.
func StripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// StripFences removes markdown code fences and <think> blocks from LLM
// output, kept verbatim from the teacher's internal/llm.Client.
func StripFences(s string) string {
	s = StripThinkBlocks(strings.TrimSpace(s))
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
