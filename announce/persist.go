package announce

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
)

// FilePersister appends each stored record to a log file (spec.md §6:
// "(timestamp, hash, identity_pub, app_data_len, app_data, ratchet_pub?)"),
// best-effort: a write failure here never propagates as a cache error
// (spec.md §4.8 — "the core treats it as best-effort").
type FilePersister struct {
	mu   sync.Mutex
	file *os.File
}

// OpenFilePersister opens (creating if necessary) an append-only log at
// path.
func OpenFilePersister(path string) (*FilePersister, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &FilePersister{file: f}, nil
}

// Append writes one record to the log.
func (p *FilePersister) Append(hash []byte, rec *Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeRecord(p.file, hash, rec)
}

func writeRecord(f *os.File, hash []byte, rec *Record) error {
	hasRatchet := byte(0)
	if rec.RatchetPublic != nil {
		hasRatchet = 1
	}

	buf := make([]byte, 0, 8+1+len(hash)+1+len(rec.IdentityPublic)+4+len(rec.AppData)+1+len(rec.RatchetPublic))
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(rec.LastSeen))
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, byte(len(hash)))
	buf = append(buf, hash...)
	buf = append(buf, byte(len(rec.IdentityPublic)))
	buf = append(buf, rec.IdentityPublic...)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(rec.AppData)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, rec.AppData...)
	buf = append(buf, hasRatchet)
	if hasRatchet == 1 {
		buf = append(buf, rec.RatchetPublic...)
	}

	_, err := f.Write(buf)
	return err
}

// Close closes the underlying log file.
func (p *FilePersister) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Close()
}

// Compact rewrites the log at path to contain only the current contents
// of c, one record per known hash (spec.md §6: "periodic compaction").
// A failure here is reported but never fatal — the cache itself is
// unaffected and keeps operating from memory.
func (p *FilePersister) Compact(c *Cache, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), "announce-compact-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	for _, hash := range c.Hashes() {
		rec, ok := c.Get(hash)
		if !ok {
			continue
		}
		if err := writeRecord(tmp, hash, &rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := p.file.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	p.file = f
	return nil
}
