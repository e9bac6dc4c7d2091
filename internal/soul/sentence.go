package soul

import "strings"

// sentenceTerminators flush the buffer on any of these runes, widened
// from execute_task_stream's simplified ".!?\n" check per spec §4.5.
const sentenceTerminators = ".!?,;:\n"

// SentenceBuffer accumulates talk deltas and flushes complete sentences
// (or a bounded word run) so voice mode can speak incrementally instead
// of waiting for the whole response.
type SentenceBuffer struct {
	wordLimit int
	buf       strings.Builder
}

func NewSentenceBuffer(wordLimit int) *SentenceBuffer {
	return &SentenceBuffer{wordLimit: wordLimit}
}

// Push appends delta and returns a complete chunk to speak, if one is
// ready — either because delta contains a terminator or the buffer has
// accumulated at least wordLimit words.
func (b *SentenceBuffer) Push(delta string) (string, bool) {
	b.buf.WriteString(delta)
	content := b.buf.String()
	if content == "" {
		return "", false
	}

	if strings.ContainsAny(delta, sentenceTerminators) {
		b.buf.Reset()
		return strings.TrimSpace(content), true
	}

	if len(strings.Fields(content)) >= b.wordLimit {
		b.buf.Reset()
		return strings.TrimSpace(content), true
	}

	return "", false
}

// Flush returns and clears any residue left in the buffer at stream end.
func (b *SentenceBuffer) Flush() (string, bool) {
	content := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	if content == "" {
		return "", false
	}
	return content, true
}
