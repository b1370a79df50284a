package transfer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"wsdrop/pkg/types"
)

// DefaultChunkSize bounds every binary frame
const DefaultChunkSize = 64 * 1024

var ErrSizeMismatch = errors.New("loaded content does not match declared size")

// Transfer is the state of one file moving through the channel. cursor*chunkSize
// is always the offset of the next unsent chunk.
type Transfer struct {
	ID   string
	Task types.Task

	buffer    []byte
	chunkSize int
	cursor    int
	percent   float64
	done      bool
}

// New starts a transfer over content already loaded into memory
func New(task types.Task, buffer []byte, chunkSize int) (*Transfer, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	if int64(len(buffer)) != task.Size {
		return nil, fmt.Errorf("%w: %s declared %d bytes, loaded %d", ErrSizeMismatch, task.Name, task.Size, len(buffer))
	}
	return &Transfer{
		Task:      task,
		buffer:    buffer,
		chunkSize: chunkSize,
	}, nil
}

// NextChunk returns the byte range [start, end) that goes out next. A
// zero-byte file yields one empty chunk. ok is false once the transfer is done.
func (t *Transfer) NextChunk() (chunk []byte, ok bool) {
	if t.done {
		return nil, false
	}
	start, end := t.bounds()
	return t.buffer[start:end], true
}

// Advance records that the chunk returned by NextChunk was sent
func (t *Transfer) Advance() {
	if t.done {
		return
	}
	_, end := t.bounds()
	size := int64(len(t.buffer))
	t.cursor++

	if end == size {
		t.done = true
		t.percent = 100
		return
	}
	p := 100 * float64(end) / float64(size)
	if p >= 100 {
		// only the final byte may report 100
		p = math.Nextafter(100, 0)
	}
	t.percent = p
}

func (t *Transfer) bounds() (start, end int64) {
	size := int64(len(t.buffer))
	start = int64(t.cursor) * int64(t.chunkSize)
	end = min(start+int64(t.chunkSize), size)
	return start, end
}

func (t *Transfer) Cursor() int { return t.cursor }

// Offset is the start of the next unsent chunk
func (t *Transfer) Offset() int64 { return int64(t.cursor) * int64(t.chunkSize) }

func (t *Transfer) Percent() float64 { return t.percent }

func (t *Transfer) Done() bool { return t.done }

// ChunkCount is the number of frames a file of size bytes needs
func ChunkCount(size int64, chunkSize int) int {
	if size <= 0 {
		return 1
	}
	c := int64(chunkSize)
	return int((size + c - 1) / c)
}

// Progress publishes the actual percent of the active transfer to whoever
// renders it. The zero value reads as 0.
type Progress struct {
	bits atomic.Uint64
}

func (p *Progress) Set(percent float64) {
	if p == nil {
		return
	}
	p.bits.Store(math.Float64bits(percent))
}

func (p *Progress) Percent() float64 {
	if p == nil {
		return 0
	}
	return math.Float64frombits(p.bits.Load())
}
