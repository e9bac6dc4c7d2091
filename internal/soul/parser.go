// Package soul segments a streaming brain response into THINK:/SAY:/ACT:
// pieces (spec §4.4) and performs the keyword-intent fallback when no
// well-formed ACT: line appears. Grounded on
// original_source/core/brain_v2.py's execute_task_stream (ACTION:/TALK:
// regex extraction with sentence-buffer flushing) generalized to three
// prefixes and genuine incremental channel emission rather than
// re-scanning the whole accumulated buffer on every chunk.
package soul

import (
	"strings"

	"github.com/umbrasol/umbrasol/internal/types"
)

type segment int

const (
	segNone segment = iota
	segThink
	segSay
	segAct
)

// Parse consumes chunks from a brain.Client.Stream channel and emits
// StreamEvents as segments are recognized. It tracks a monotonically
// advancing offset into the accumulated buffer so each reasoning/talk
// delta is emitted exactly once. Once an ACT: line is seen, talk/reasoning
// emission stops and the remainder is buffered for action parsing once
// the input channel closes — spec §4.4's "closes on ACT:" invariant.
func Parse(chunks <-chan string) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent, 16)
	go func() {
		defer close(out)

		var buf strings.Builder
		cur := segNone
		emitted := 0 // offset into buf.String() already emitted for cur's segment
		sawAct := false
		var actText string

		flushDelta := func(kind types.StreamEventKind, full string) {
			if len(full) <= emitted {
				return
			}
			delta := full[emitted:]
			emitted = len(full)
			if delta == "" {
				return
			}
			out <- types.StreamEvent{Kind: kind, Text: delta}
		}

		var pieces []string
		for {
			if len(pieces) == 0 {
				chunk, ok := <-chunks
				if !ok {
					break
				}
				if strings.HasPrefix(chunk, "ERROR:") {
					out <- types.StreamEvent{Kind: types.EventError, Text: strings.TrimPrefix(chunk, "ERROR:")}
					return
				}
				// Feed the chunk one line at a time, so a segment that opens
				// and closes within a single chunk is still emitted.
				pieces = strings.SplitAfter(chunk, "\n")
			}
			buf.WriteString(pieces[0])
			pieces = pieces[1:]
			full := buf.String()

			// Re-detect the active segment from the last recognized prefix
			// in the buffer so far. Search case-insensitively at line starts.
			// ACT is final: later lines stay in the action text.
			newSeg, prefixEnd := lastSegment(full)
			if newSeg != cur && cur != segAct {
				cur = newSeg
				emitted = prefixEnd
			}

			switch cur {
			case segThink:
				flushDelta(types.EventReasoning, full)
			case segSay:
				flushDelta(types.EventTalk, full)
			case segAct:
				sawAct = true
				actText = full[emitted:]
			}
		}

		if sawAct {
			for _, a := range parseActions(actText) {
				out <- types.StreamEvent{Kind: types.EventAction, Action: a}
			}
		}
		out <- types.StreamEvent{Kind: types.EventDone}
	}()
	return out
}

// lastSegment scans full for the last occurrence of a line-start
// THINK:/SAY:/ACT: prefix (case-insensitive) and returns which segment is
// now active and the buffer offset immediately after that prefix.
func lastSegment(full string) (segment, int) {
	type hit struct {
		seg segment
		pos int
		end int
	}
	var best hit

	find := func(prefix string, seg segment) {
		lower := strings.ToLower(full)
		p := strings.ToLower(prefix)
		idx := -1
		for i := 0; i+len(p) <= len(lower); i++ {
			if (i == 0 || lower[i-1] == '\n') && lower[i:i+len(p)] == p {
				idx = i
			}
		}
		if idx != -1 && idx >= best.pos {
			best = hit{seg: seg, pos: idx, end: idx + len(prefix)}
		}
	}

	find("THINK:", segThink)
	find("SAY:", segSay)
	find("ACT:", segAct)

	if best.seg == segNone {
		return segNone, 0
	}
	return best.seg, best.end
}

// parseActions turns the raw text following the last ACT: prefix into one
// or more Actions, one per line of the form "tool,cmd" or "tool: cmd".
// Malformed or empty lines are skipped rather than aborting the parse.
func parseActions(raw string) []types.Action {
	var out []types.Action
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "ACT:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tool, cmd, ok := splitToolCmd(line)
		if !ok {
			continue
		}
		out = append(out, types.Action{Tool: NormalizeTool(tool), Cmd: cmd})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitToolCmd(line string) (tool, cmd string, ok bool) {
	if idx := strings.Index(line, ","); idx != -1 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	if idx := strings.Index(line, ":"); idx != -1 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	return strings.TrimSpace(line), "", true
}

// NormalizeTool fuzzy-matches a brain-supplied tool name against
// SAFE_TOOLS, falling back to "stats" when nothing matches — mirroring
// brain_v2.py's "if tool not in self.safe_tools: tool = 'stats'" but
// widened to substring matching in either direction, since small models
// frequently emit a close-but-not-exact tool name.
func NormalizeTool(raw string) types.Tool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if types.IsSafeTool(types.Tool(raw)) {
		return types.Tool(raw)
	}
	for t := range types.SAFE_TOOLS {
		ts := string(t)
		if strings.Contains(raw, ts) || strings.Contains(ts, raw) {
			return t
		}
	}
	return types.ToolStats
}

// fillerLeading and fillerTrailing are the filler words spec §4.4 strips
// from a synthesized fallback cmd: leading prepositions/articles and a
// trailing "directory"/"folder" noun left over once a path or query has
// been extracted.
var fillerLeading = map[string]bool{"in": true, "for": true, "using": true, "about": true, "the": true, "a": true}
var fillerTrailing = map[string]bool{"directory": true, "folder": true}

// netLeadingVerbs are stripped from the front of a web-search fallback cmd
// so "search for the weather in Tokyo" yields a bare query rather than a
// verb phrase.
var netLeadingVerbs = map[string]bool{"search": true, "find": true, "look": true, "lookup": true, "up": true, "google": true, "for": true}

// KeywordFallback applies the TOOL_MAP substring-intent fallback when a
// brain response produced no ACT: line at all. It returns one Action per
// distinct tool whose keyword appears in text, in TOOL_MAP discovery
// order, each carrying a cmd synthesized from the request per spec §4.4:
// other tools' keywords stripped, tool-specific extraction applied, and
// filler phrases trimmed.
func KeywordFallback(text string) []types.Action {
	lower := strings.ToLower(text)

	var matched []types.ToolMapEntry
	for _, entry := range types.ToolMap {
		if strings.Contains(lower, entry.Keyword) {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	seen := make(map[types.Tool]bool, len(matched))
	var out []types.Action
	for _, entry := range matched {
		if seen[entry.Tool] {
			continue
		}
		seen[entry.Tool] = true
		out = append(out, types.Action{Tool: entry.Tool, Cmd: fallbackCmd(text, entry, matched)})
	}
	return out
}

// fallbackCmd synthesizes entry's cmd from the original request: strip
// every other matched tool's keyword (keyword-adjacent phrase removal),
// apply a tool-specific extraction where one applies, then trim filler
// phrases from the remainder.
func fallbackCmd(request string, entry types.ToolMapEntry, matched []types.ToolMapEntry) string {
	cleaned := stripOtherKeywords(request, entry, matched)

	switch entry.Tool {
	case types.ToolLs:
		if path, ok := extractAfter(cleaned, "in", "of"); ok {
			return trimFiller(path)
		}
	case types.ToolNet:
		cleaned = stripLeadingWords(cleaned, netLeadingVerbs)
	}

	return trimFiller(cleaned)
}

// stripOtherKeywords removes every matched entry's keyword belonging to a
// different tool than keep from request, case-insensitively, collapsing
// the resulting whitespace — spec §4.4's "mentions of other tools'
// keywords stripped".
func stripOtherKeywords(request string, keep types.ToolMapEntry, matched []types.ToolMapEntry) string {
	lower := strings.ToLower(request)
	runes := []rune(request)
	lowerRunes := []rune(lower)

	for _, entry := range matched {
		if entry.Tool == keep.Tool {
			continue
		}
		kw := strings.ToLower(entry.Keyword)
		for {
			idx := strings.Index(string(lowerRunes), kw)
			if idx == -1 {
				break
			}
			start, end := idx, idx+len(kw)
			runes = append(runes[:start], runes[end:]...)
			lowerRunes = append(lowerRunes[:start], lowerRunes[end:]...)
		}
	}
	return strings.Join(strings.Fields(string(runes)), " ")
}

// extractAfter returns the text following the first occurrence (case-
// insensitive, whole word) of any of prepositions in s, for extractions
// like "list files in the reports folder" -> "the reports folder".
func extractAfter(s string, prepositions ...string) (string, bool) {
	words := strings.Fields(s)
	for i, w := range words {
		lw := strings.ToLower(strings.Trim(w, ".,!?"))
		for _, p := range prepositions {
			if lw == p && i+1 < len(words) {
				return strings.Join(words[i+1:], " "), true
			}
		}
	}
	return "", false
}

// stripLeadingWords removes leading words present in set, stopping at the
// first word that isn't one, for verb-phrase stripping ahead of a query.
func stripLeadingWords(s string, set map[string]bool) string {
	words := strings.Fields(s)
	start := 0
	for start < len(words) && set[strings.ToLower(words[start])] {
		start++
	}
	return strings.Join(words[start:], " ")
}

// trimFiller strips leading prepositions/articles and a trailing
// "directory"/"folder" noun from s, per spec §4.4's filler-phrase
// trimming.
func trimFiller(s string) string {
	words := strings.Fields(s)
	start := 0
	for start < len(words) && fillerLeading[strings.ToLower(words[start])] {
		start++
	}
	end := len(words)
	for end > start && fillerTrailing[strings.ToLower(words[end-1])] {
		end--
	}
	return strings.Join(words[start:end], " ")
}
