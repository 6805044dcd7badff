package peer

import pion "github.com/pion/webrtc/v4"

// candidateBuffer holds connectivity candidates that arrive before the
// remote description is installed. Entries keep their arrival order and
// are only ever flushed (applied in order) or discarded on teardown.
// It is guarded by the owning session's mutex.
type candidateBuffer struct {
	entries []pion.ICECandidateInit
}

func (b *candidateBuffer) add(c pion.ICECandidateInit) {
	b.entries = append(b.entries, c)
}

// drain returns the buffered candidates in arrival order and empties
// the buffer.
func (b *candidateBuffer) drain() []pion.ICECandidateInit {
	out := b.entries
	b.entries = nil
	return out
}

func (b *candidateBuffer) len() int {
	return len(b.entries)
}
