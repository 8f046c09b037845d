package transport

import (
	"io"

	"github.com/aauto/aauto/aautoerr"
)

// pipeIO adapts an io.Reader/io.Writer pair to physicalIO, used to build
// Loopback test transports and anything else fed by an in-memory pipe.
type pipeIO struct {
	r io.Reader
	w io.Writer
	c io.Closer
}

func (p *pipeIO) enqueueReceive(buf []byte, onDone func(n int), onErr func(*aautoerr.Error)) {
	go func() {
		n, err := p.r.Read(buf)
		if n > 0 {
			onDone(n)
			return
		}
		if err != nil {
			onErr(aautoerr.WithNative(aautoerr.TcpTransfer, 0, err.Error()))
			return
		}
		onDone(0)
	}()
}

func (p *pipeIO) enqueueSend(data []byte, onDone func(), onErr func(*aautoerr.Error)) {
	go func() {
		if _, err := p.w.Write(data); err != nil {
			onErr(aautoerr.WithNative(aautoerr.TcpTransfer, 0, err.Error()))
			return
		}
		onDone()
	}()
}

func (p *pipeIO) stopPhysical() {
	if p.c != nil {
		_ = p.c.Close()
	}
}

// NewLoopback returns two Transports, a and b, connected back to back:
// bytes sent on a arrive on b and vice versa. Used by round-trip law tests
// (S1, S2, S6) so a loopback transport can be fed byte-by-byte or in
// arbitrary chunks.
func NewLoopback() (a, b Transport) {
	arToB, bWriter := io.Pipe()
	brToA, aWriter := io.Pipe()

	aIO := &pipeIO{r: brToA, w: bWriter, c: aWriter}
	bIO := &pipeIO{r: arToB, w: aWriter, c: bWriter}

	aBase := NewBase("loopback-a", aIO)
	bBase := NewBase("loopback-b", bIO)

	return aBase, bBase
}

// NewChunkedLoopback is like NewLoopback but both directions deliver bytes
// through a chunker that caps each physical read at chunkSize,
// letting tests exercise message assembly independent of chunk boundaries
// (spec §8 property 11, scenario S6).
func NewChunkedLoopback(chunkSize int) (a, b Transport) {
	arToB, bWriter := io.Pipe()
	brToA, aWriter := io.Pipe()

	aIO := &pipeIO{r: &chunkedReader{r: brToA, max: chunkSize}, w: bWriter, c: aWriter}
	bIO := &pipeIO{r: &chunkedReader{r: arToB, max: chunkSize}, w: aWriter, c: bWriter}

	aBase := NewBase("loopback-a", aIO)
	bBase := NewBase("loopback-b", bIO)

	return aBase, bBase
}

// chunkedReader limits every Read to at most max bytes, regardless of how
// much buffer space or upstream data is available.
type chunkedReader struct {
	r   io.Reader
	max int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.max {
		p = p[:c.max]
	}
	return c.r.Read(p)
}
