package iso2709

import (
	"bufio"
	"io"

	"marcstream/pkg/contract"
)

// Encoder 为规范事件的逆向编码 Sink：每个事件写为 “载荷 + 分隔字节”。
// 结束事件（空 File）不写出字节，仅触发 Flush；因此 Reader 读回时得到相同的事件序列。
type Encoder struct {
	w *bufio.Writer
	n int64
}

// NewEncoder 创建写入 w 的编码器。
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) Chunk(c contract.Chunk) error {
	if c.IsEnd() {
		return e.w.Flush()
	}
	n, err := e.w.Write(c.Data.Bytes())
	e.n += int64(n)
	if err != nil {
		return err
	}
	if err := e.w.WriteByte(byte(c.Separator)); err != nil {
		return err
	}
	e.n++
	return nil
}

// Flush 将缓冲写入底层 Writer。
func (e *Encoder) Flush() error { return e.w.Flush() }

// Written 返回累计写入字节数（含缓冲中未 Flush 的部分）。
func (e *Encoder) Written() int64 { return e.n }

var _ contract.Sink = (*Encoder)(nil)
