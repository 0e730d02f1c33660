package audio

import (
	"bytes"
	"sync"
	"time"
)

type Encoding string

const (
	EncodingPCM       Encoding = "pcm"
	EncodingContainer Encoding = "container"
	EncodingUnknown   Encoding = "unknown"
)

func (e Encoding) String() string {
	return string(e)
}

// Extension is the file suffix used when the encoding is spilled to disk.
func (e Encoding) Extension() string {
	switch e {
	case EncodingPCM:
		return ".pcm"
	case EncodingContainer:
		return ".webm"
	default:
		return ".bin"
	}
}

type Chunk struct {
	Payload    []byte
	Encoding   Encoding
	ReceivedAt time.Time
}

// clusterID is the Matroska/WebM Cluster element id. Everything before the
// first cluster in a recording's first chunk is stream header.
var clusterID = []byte{0x1F, 0x43, 0xB6, 0x75}

// ContainerHeader returns the stream header at the front of a recording's
// first container chunk. A chunk without a cluster is returned whole.
func ContainerHeader(payload []byte) []byte {
	if i := bytes.Index(payload, clusterID); i >= 0 {
		return payload[:i:i]
	}
	return payload
}

// Batch is a contiguous run [Start, End) of a session's chunks.
type Batch struct {
	Start  int
	End    int
	Chunks []Chunk
	// Header is the session's container header, prepended by Merge to
	// container batches that do not begin with the first chunk.
	Header []byte
}

func (b Batch) needsHeader() bool {
	return b.Start > 0 && len(b.Header) > 0 && b.Encoding() == EncodingContainer
}

func (b Batch) Len() int {
	return len(b.Chunks)
}

func (b Batch) Empty() bool {
	return len(b.Chunks) == 0
}

// Encoding returns the tag of the first chunk. The whole batch is treated uniformly.
func (b Batch) Encoding() Encoding {
	if len(b.Chunks) == 0 {
		return EncodingUnknown
	}
	return b.Chunks[0].Encoding
}

func (b Batch) Size() int {
	n := 0
	for _, c := range b.Chunks {
		n += len(c.Payload)
	}
	return n
}

func (b Batch) Merge() []byte {
	var buf bytes.Buffer
	buf.Grow(b.Size() + len(b.Header))
	if b.needsHeader() {
		buf.Write(b.Header)
	}
	for _, c := range b.Chunks {
		buf.Write(c.Payload)
	}
	return buf.Bytes()
}

func (b Batch) Split(size int) []Batch {
	if size <= 0 || len(b.Chunks) <= size {
		if b.Empty() {
			return nil
		}
		return []Batch{b}
	}

	batches := make([]Batch, 0, (len(b.Chunks)+size-1)/size)
	for i := 0; i < len(b.Chunks); i += size {
		end := min(i+size, len(b.Chunks))
		batches = append(batches, Batch{
			Start:  b.Start + i,
			End:    b.Start + end,
			Chunks: b.Chunks[i:end],
			Header: b.Header,
		})
	}
	return batches
}

type ChunkStore struct {
	mu     sync.RWMutex
	chunks []Chunk
	bytes  int
	header []byte
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make([]Chunk, 0, 64)}
}

func (s *ChunkStore) Append(payload []byte, encoding Encoding) Chunk {
	chunk := Chunk{
		Payload:    payload,
		Encoding:   encoding,
		ReceivedAt: time.Now(),
	}

	s.mu.Lock()
	if len(s.chunks) == 0 && encoding == EncodingContainer {
		s.header = ContainerHeader(payload)
	}
	s.chunks = append(s.chunks, chunk)
	s.bytes += len(payload)
	s.mu.Unlock()

	return chunk
}

func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Header returns the container header taken from the first chunk, or nil
// when the session did not start with container audio.
func (s *ChunkStore) Header() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header
}

func (s *ChunkStore) Bytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Snapshot returns the chunks in [from, Len()) without mutating the store.
func (s *ChunkStore) Snapshot(from int) Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if from < 0 {
		from = 0
	}
	if from >= len(s.chunks) {
		return Batch{Start: len(s.chunks), End: len(s.chunks), Header: s.header}
	}

	chunks := make([]Chunk, len(s.chunks)-from)
	copy(chunks, s.chunks[from:])
	return Batch{
		Start:  from,
		End:    len(s.chunks),
		Chunks: chunks,
		Header: s.header,
	}
}

func (s *ChunkStore) Release() {
	s.mu.Lock()
	s.chunks = nil
	s.bytes = 0
	s.header = nil
	s.mu.Unlock()
}
