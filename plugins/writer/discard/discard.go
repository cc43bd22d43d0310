// Package discard 提供只计数、不落盘的 Writer，用于仅统计或校验摘要的运行。
package discard

import (
	"context"
	"io"
	"sync/atomic"

	"marcstream/pkg/contract"
)

type Writer struct {
	n atomic.Int64
}

func New() *Writer { return &Writer{} }

// Write 读尽 r 并丢弃；ctx 取消时尽快返回。
func (w *Writer) Write(ctx context.Context, _ contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := io.Copy(io.Discard, r)
	w.n.Add(n)
	return err
}

// Bytes 返回累计丢弃的字节数。
func (w *Writer) Bytes() int64 { return w.n.Load() }

var _ contract.Writer = (*Writer)(nil)
