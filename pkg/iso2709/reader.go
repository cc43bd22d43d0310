// Package iso2709 直接按 ISO 2709 四个信息分隔字节切分字节流，产出规范事件；
// 并提供逆向的规范流编码器。
package iso2709

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
)

// DefaultBufSize 为默认读缓冲大小（字节）。
const DefaultBufSize = 8192

const maxEmptyReads = 100

// Reader 以分隔字节 0x1C..0x1F 切分输入。
// 每个 Chunk 的 Separator 为终止该段的控制字节；数据视图借用内部缓冲，下一次 Next 前有效。
// 输入耗尽时：若有未终止的尾部字节，先以 File 标记返回；随后返回一次空 File，再返回 io.EOF。
type Reader struct {
	r        io.Reader
	buf      []byte
	pos, end int
	data     []byte
	err      error
	ended    bool
}

// NewReader 创建分隔符读取器；bufSize<=0 时使用 DefaultBufSize。
func NewReader(r io.Reader, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	return &Reader{r: r, buf: make([]byte, bufSize)}
}

// Next 返回下一事件；结束事件之后返回 io.EOF。
func (s *Reader) Next() (contract.Chunk, error) {
	if s.ended {
		return contract.Chunk{}, io.EOF
	}
	s.data = s.data[:0]
	empty := 0
	for {
		for s.pos < s.end {
			b := s.buf[s.pos]
			s.pos++
			if contract.IsSeparator(b) {
				return contract.Chunk{Separator: contract.Separator(b), Data: bytesref.Borrow(s.data)}, nil
			}
			s.data = append(s.data, b)
		}
		if s.err != nil {
			if s.err != io.EOF {
				return contract.Chunk{}, s.err
			}
			if len(s.data) > 0 {
				tail := contract.Chunk{Separator: contract.File, Data: bytesref.Borrow(s.data)}
				s.data = s.data[len(s.data):]
				return tail, nil
			}
			s.ended = true
			return contract.EndChunk, nil
		}
		n, err := s.r.Read(s.buf)
		s.pos, s.end = 0, n
		if err != nil {
			s.err = err
		} else if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				s.err = io.ErrNoProgress
			}
		}
	}
}

// Each 顺序遍历全部事件（含最后的空 File）。
func (s *Reader) Each(yield func(c contract.Chunk) error) error {
	for {
		c, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := yield(c); err != nil {
			return err
		}
	}
}

// Decode 将全部事件推送到 sink；帧之间检查 ctx。
func (s *Reader) Decode(ctx context.Context, sink contract.Sink) error {
	return s.Each(func(c contract.Chunk) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sink.Chunk(c)
	})
}
