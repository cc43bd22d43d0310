// Package pattern 将字节流按可配置的分隔模式切分为帧，并把每帧交给方言处理器重新解释。
package pattern

import (
	"io"

	"github.com/pkg/errors"

	"marcstream/internal/scan"
	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
)

// DefaultBufSize 为默认读缓冲大小（字节）。
const DefaultBufSize = 8192

// maxEmptyReads: 连续 (0, nil) 读取的容忍次数，超过即视为无进展。
const maxEmptyReads = 100

var (
	// ErrEmptyPattern: 分隔模式为空。
	ErrEmptyPattern = errors.Wrap(contract.ErrInvalidInput, "pattern: empty delimiter")

	lf   = []byte{'\n'}
	crlf = []byte{'\r', '\n'}
)

// Reader 按分隔模式切分底层字节流。
// 约束：
//   - 每个字节都经过滑动窗口，跨缓冲区补充边界的模式同样能被识别，且不回扫已消费字节；
//   - 流首出现的模式产生一个空帧；
//   - 末尾无分隔符时剩余字节作为最后一帧输出；末尾恰为分隔符时不产生多余空帧；
//   - Next 返回的视图借用内部缓冲，下一次 Next 前有效。
type Reader struct {
	r   io.Reader
	pat []byte
	win *scan.Window

	buf      []byte
	pos, end int
	frame    []byte
	err      error // 粘滞的底层读错误（含 io.EOF）
}

// NewReader 以任意非空模式创建 Reader；bufSize<=0 时使用 DefaultBufSize。
func NewReader(r io.Reader, pat []byte, bufSize int) (*Reader, error) {
	if len(pat) == 0 {
		return nil, ErrEmptyPattern
	}
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	p := make([]byte, len(pat))
	copy(p, pat)
	return &Reader{
		r:   r,
		pat: p,
		win: scan.New(len(p)),
		buf: make([]byte, bufSize),
	}, nil
}

// LF 创建以 "\n" 为模式的 Reader。
func LF(r io.Reader, bufSize int) *Reader {
	p, _ := NewReader(r, lf, bufSize)
	return p
}

// CRLF 创建以 "\r\n" 为模式的 Reader。
func CRLF(r io.Reader, bufSize int) *Reader {
	p, _ := NewReader(r, crlf, bufSize)
	return p
}

// Byte 创建以单字节为模式的 Reader。
func Byte(r io.Reader, b byte, bufSize int) *Reader {
	p, _ := NewReader(r, []byte{b}, bufSize)
	return p
}

// Pattern 返回分隔模式的副本。
func (p *Reader) Pattern() []byte { return append([]byte(nil), p.pat...) }

// Next 返回下一帧；输入耗尽时返回 io.EOF。
func (p *Reader) Next() (bytesref.Ref, error) {
	p.frame = p.frame[:0]
	empty := 0
	for {
		for p.pos < p.end {
			b := p.buf[p.pos]
			p.pos++
			p.win.Append(b)
			p.frame = append(p.frame, b)
			if p.win.HasSuffix(p.pat) {
				// 命中后清空窗口，避免与下一次匹配重叠
				p.win.Reset()
				return bytesref.Borrow(p.frame[:len(p.frame)-len(p.pat)]), nil
			}
		}
		if p.err != nil {
			if p.err == io.EOF {
				if len(p.frame) > 0 {
					f := bytesref.Borrow(p.frame)
					p.frame = p.frame[len(p.frame):]
					return f, nil
				}
				return bytesref.Ref{}, io.EOF
			}
			return bytesref.Ref{}, p.err
		}
		n, err := p.r.Read(p.buf)
		p.pos, p.end = 0, n
		if err != nil {
			p.err = err
		} else if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				p.err = io.ErrNoProgress
			}
		}
	}
}

// Each 顺序遍历剩余帧（单遍、不可重启）。yield 返回错误时立即停止并上抛。
func (p *Reader) Each(yield func(frame bytesref.Ref) error) error {
	for {
		f, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := yield(f); err != nil {
			return err
		}
	}
}
