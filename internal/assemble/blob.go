package assemble

import (
	"sync"

	"github.com/google/uuid"
)

// BlobStore holds the executable module code produced by builds, keyed by
// an opaque reference served over HTTP. Every blob belongs to the
// generation of the build that produced it; installing a build releases
// every blob of any other generation, so repeated edits cannot accumulate
// resources.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	code       string
	generation uint64
}

// NewBlobStore returns an empty blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

// NewRef mints a fresh opaque blob reference.
func NewRef() string {
	return uuid.NewString()
}

// Get returns the module code for ref.
func (s *BlobStore) Get(ref string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	return b.code, ok
}

// Len returns the number of live blobs.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// install adds every blob of one build and releases all blobs belonging
// to other generations, as a single atomic step.
func (s *BlobStore) install(generation uint64, blobs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, b := range s.blobs {
		if b.generation != generation {
			delete(s.blobs, ref)
		}
	}
	for ref, code := range blobs {
		s.blobs[ref] = blob{code: code, generation: generation}
	}
}

// releaseAll drops every blob, used when a project is closed.
func (s *BlobStore) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string]blob)
}
