// Package aleph 解码 Aleph Sequential 定列文本格式。
//
// 每行：
//
//	000000001 24510 L $$aTitle$$bSub
//	^0-8 记录号 ^10-12 tag ^13-14 指示符 ^18 值
//
// 记录边界由相邻行记录号的变化决定。记录开头的 FMT（Aleph 格式码）不产生事件；
// 其后的 LDR 行携带记录标签，缺失时使用缺省标签。定长位与指示符中的 '^' 表示空格。
package aleph

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/pkg/label"
	"marcstream/pkg/pattern"
)

const (
	// minLen: 值起始列；更短的行不含完整的 tag/指示符区。
	minLen   = 18
	idLen    = 9
	tagOff   = 10
	indOff   = 13
	valueOff = 18
)

var (
	subfieldSep   = "$$"
	defaultLeader = label.Default().Bytes()
)

// Options 为 Aleph 解码器配置。
type Options struct {
	// BufSize: 读缓冲大小；<=0 使用默认值。
	BufSize int `json:"buf_size"`
}

// Decoder 实现 contract.Decoder。
type Decoder struct {
	bufSize int
}

// New 创建 Aleph 解码器。
func New(opts *Options) *Decoder {
	d := &Decoder{}
	if opts != nil {
		d.bufSize = opts.BufSize
	}
	return d
}

func (d *Decoder) Decode(ctx context.Context, r io.Reader, sink contract.Sink) error {
	return pattern.Run(ctx, pattern.LF(r, d.bufSize), &processor{}, sink)
}

// processor 保存跨行状态：上一行的记录号，以及本记录的标签是否仍待推送。
type processor struct {
	lastID  []byte
	started bool
	pending bool
	buf     []byte
}

func (p *processor) Process(line bytesref.Ref, sink contract.Sink) error {
	// 兼容 CRLF 行尾
	if n := line.Len(); n > 0 && line.At(n-1) == '\r' {
		line = line.Slice(0, n-1)
	}
	if line.Len() < minLen {
		return nil
	}
	id := line.Slice(0, idLen)
	tag := line.Slice(tagOff, tagOff+3)

	if !p.started || !id.Equal(bytesref.Borrow(p.lastID)) {
		p.started = true
		p.lastID = append(p.lastID[:0], id.Bytes()...)
		p.pending = true
	}
	switch {
	case tag.EqualString("FMT"):
		return nil
	case tag.EqualString("LDR"):
		// 记录中途（已有字段之后）的 LDR 行不再产生事件
		if !p.pending {
			return nil
		}
		p.pending = false
		p.buf = caretToSpace(append(p.buf[:0], line.From(valueOff).Bytes()...))
		return pattern.Emit(sink, contract.Group, label.FromBytes(p.buf).Bytes())
	}
	if p.pending {
		p.pending = false
		if err := pattern.Emit(sink, contract.Group, defaultLeader); err != nil {
			return err
		}
	}
	return p.field(line, tag, sink)
}

func (p *processor) field(line, tag bytesref.Ref, sink contract.Sink) error {
	value := line.From(valueOff)
	if tag.HasPrefix("00") {
		p.buf = append(p.buf[:0], tag.Bytes()...)
		p.buf = caretToSpace(append(p.buf, value.Bytes()...))
		return pattern.Emit(sink, contract.Field, p.buf)
	}
	p.buf = append(p.buf[:0], tag.Bytes()...)
	p.buf = append(p.buf, line.Slice(indOff, indOff+2).Bytes()...)
	// 子字段值原样保留，仅指示符映射 '^'
	caretToSpace(p.buf[3:])
	if err := pattern.Emit(sink, contract.Field, p.buf); err != nil {
		return err
	}
	parts := value.SplitString(subfieldSep)
	// 首个 "$$" 之前的文本作为合成子字段 a
	if head := parts[0]; !head.IsEmpty() {
		p.buf = append(append(p.buf[:0], 'a'), head.Bytes()...)
		if err := pattern.Emit(sink, contract.Unit, p.buf); err != nil {
			return err
		}
	}
	for _, sf := range parts[1:] {
		if sf.IsEmpty() {
			continue
		}
		if err := sink.Chunk(contract.Chunk{Separator: contract.Unit, Data: sf}); err != nil {
			return err
		}
	}
	return nil
}

func caretToSpace(b []byte) []byte {
	for i, c := range b {
		if c == '^' {
			b[i] = ' '
		}
	}
	return b
}

var _ contract.Decoder = (*Decoder)(nil)
