package desensitize

import (
	"io"

	"github.com/kochabx/eplq/log/internal"
)

// Writer passes every write through a Hook
type Writer struct {
	writer io.Writer
	hook   *Hook
}

// NewWriter wraps writer; both arguments are required
func NewWriter(writer io.Writer, hook *Hook) *Writer {
	if writer == nil {
		panic("writer cannot be nil")
	}
	if hook == nil {
		panic("hook cannot be nil")
	}
	return &Writer{writer: writer, hook: hook}
}

// Write reports len(p) on success so zerolog does not flag short writes
// when the rewritten line differs in length.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.hook.RuleCount() == 0 {
		return w.writer.Write(p)
	}

	text := string(p)
	out := w.hook.Desensitize(text)
	if out == text {
		return w.writer.Write(p)
	}

	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)
	buf.WriteString(out)

	if _, err := w.writer.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
