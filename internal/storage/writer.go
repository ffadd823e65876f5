// Package storage writes posts out of the store as newline-delimited JSON.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// Writer encodes posts as NDJSON, one object per line.
type Writer struct {
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{buf: buf, enc: json.NewEncoder(buf)}
}

func (w *Writer) Write(posts ...domain.Post) error {
	for _, p := range posts {
		if err := w.enc.Encode(p); err != nil {
			return fmt.Errorf("encode post %s: %w", p.ID, err)
		}
		w.count++
	}
	return nil
}

// Count is the number of posts written so far.
func (w *Writer) Count() int { return w.count }

func (w *Writer) Flush() error { return w.buf.Flush() }

// Create opens path for writing, truncating it. "-" means stdout.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
