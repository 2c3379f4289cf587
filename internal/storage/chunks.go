package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChunkStore keeps in-flight upload chunks on local scratch disk, addressed
// by (sessionID, chunkNumber). Chunks may arrive and be stored in any
// order; assembly reads them back in ascending chunk-number order.
type ChunkStore struct {
	root string
}

// NewChunkStore creates a ChunkStore rooted at the given scratch directory.
func NewChunkStore(root string) *ChunkStore {
	return &ChunkStore{root: root}
}

// SaveChunk writes one chunk's bytes, overwriting any previous upload of the
// same chunk number. Returns the number of bytes written.
func (s *ChunkStore) SaveChunk(sessionID string, chunkNumber int, r io.Reader) (int64, error) {
	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create session dir: %w", err)
	}

	dst, err := os.Create(s.chunkPath(sessionID, chunkNumber))
	if err != nil {
		return 0, fmt.Errorf("create chunk file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, r)
	if err != nil {
		return 0, fmt.Errorf("write chunk: %w", err)
	}
	return n, nil
}

// Assemble concatenates chunks 0..totalChunks-1 in ascending numeric order
// into a single scratch file and returns its path. Ordering is the critical
// correctness property: the result is byte-identical regardless of the
// order chunks arrived in. The output goes to a scratch location, never
// directly to permanent storage.
func (s *ChunkStore) Assemble(sessionID string, totalChunks int) (string, error) {
	outPath := filepath.Join(s.sessionDir(sessionID), "assembled")
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create assembly target: %w", err)
	}
	defer out.Close()

	for i := 0; i < totalChunks; i++ {
		if err := s.appendChunk(out, sessionID, i); err != nil {
			return "", err
		}
	}

	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("sync assembly target: %w", err)
	}
	return outPath, nil
}

// RemoveSession deletes all scratch data for a session: its chunks and any
// assembled file.
func (s *ChunkStore) RemoveSession(sessionID string) error {
	return os.RemoveAll(s.sessionDir(sessionID))
}

// HasChunk reports whether the chunk's bytes exist on scratch disk.
func (s *ChunkStore) HasChunk(sessionID string, chunkNumber int) bool {
	_, err := os.Stat(s.chunkPath(sessionID, chunkNumber))
	return err == nil
}

func (s *ChunkStore) appendChunk(out *os.File, sessionID string, chunkNumber int) error {
	in, err := os.Open(s.chunkPath(sessionID, chunkNumber))
	if err != nil {
		return fmt.Errorf("open chunk %d: %w", chunkNumber, err)
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("append chunk %d: %w", chunkNumber, err)
	}
	return nil
}

func (s *ChunkStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *ChunkStore) chunkPath(sessionID string, chunkNumber int) string {
	return filepath.Join(s.sessionDir(sessionID), fmt.Sprintf("chunk_%06d", chunkNumber))
}
