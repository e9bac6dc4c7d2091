package soul

import "testing"

func TestSentenceBuffer_FlushesOnTerminator(t *testing.T) {
	b := NewSentenceBuffer(8)
	chunk, ready := b.Push("Hello there.")
	if !ready {
		t.Fatal("expected flush on sentence terminator")
	}
	if chunk != "Hello there." {
		t.Errorf("chunk = %q, want %q", chunk, "Hello there.")
	}
}

func TestSentenceBuffer_FlushesOnWordLimit(t *testing.T) {
	b := NewSentenceBuffer(3)
	if _, ready := b.Push("one two"); ready {
		t.Fatal("expected no flush before word limit reached")
	}
	chunk, ready := b.Push(" three four")
	if !ready {
		t.Fatal("expected flush once word limit reached")
	}
	if chunk != "one two three four" {
		t.Errorf("chunk = %q, want %q", chunk, "one two three four")
	}
}

func TestSentenceBuffer_AccumulatesBelowLimit(t *testing.T) {
	b := NewSentenceBuffer(10)
	if _, ready := b.Push("just two"); ready {
		t.Error("expected no flush while below both thresholds")
	}
}

func TestSentenceBuffer_FlushReturnsResidueAtStreamEnd(t *testing.T) {
	b := NewSentenceBuffer(10)
	b.Push("trailing words")
	chunk, ready := b.Flush()
	if !ready {
		t.Fatal("expected residue to flush")
	}
	if chunk != "trailing words" {
		t.Errorf("chunk = %q, want %q", chunk, "trailing words")
	}
}

func TestSentenceBuffer_FlushOnEmptyBufferReturnsNotReady(t *testing.T) {
	b := NewSentenceBuffer(10)
	if _, ready := b.Flush(); ready {
		t.Error("expected no flush from an empty buffer")
	}
}

func TestSentenceBuffer_ResetsAfterFlush(t *testing.T) {
	b := NewSentenceBuffer(8)
	b.Push("First sentence.")
	chunk, ready := b.Push("Second sentence.")
	if !ready {
		t.Fatal("expected second sentence to flush independently")
	}
	if chunk != "Second sentence." {
		t.Errorf("chunk = %q, want the buffer reset after the first flush", chunk)
	}
}
