// Package pica 解码 Pica+ 的二进制格式与 Pica Plain 文本格式。
//
// 两者共用字段解析：4 字节字段头（3 位 tag + 1 字节指示符），可选的 "/NN" 出现次数，
// 控制字段（tag 以 00 开头）自第 7 字节起为值；数据字段的子字段按分隔符拆分。
package pica

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/pkg/label"
	"marcstream/pkg/pattern"
)

const (
	recordSep   = 0x1D
	fieldSep    = 0x1E
	subfieldSep = 0x1F
	plainSep    = '$'

	minFieldLen = 4
	controlOff  = 7
	// occurrenceHeaderLen: 带出现次数的字段头 "tttX/NN " 的长度。
	occurrenceHeaderLen = 8
)

var leader = label.Synthesize(2, 2).Bytes()

// Options 为 Pica 解码器配置（二进制与 Plain 共用）。
type Options struct {
	BufSize int `json:"buf_size"`
}

// Decoder 为二进制 Pica 解码器：记录以 0x1D 结束，字段以 0x1E 分隔。
type Decoder struct {
	bufSize int
}

// New 创建二进制 Pica 解码器。
func New(opts *Options) *Decoder {
	d := &Decoder{}
	if opts != nil {
		d.bufSize = opts.BufSize
	}
	return d
}

func (d *Decoder) Decode(ctx context.Context, r io.Reader, sink contract.Sink) error {
	return pattern.Run(ctx, pattern.Byte(r, recordSep, d.bufSize), &binary{}, sink)
}

type binary struct {
	f fieldWriter
}

func (b *binary) Process(rec bytesref.Ref, sink contract.Sink) error {
	if rec.Len() > 0 && rec.At(0) == '\n' {
		rec = rec.From(1)
	}
	fields := rec.Split(fieldSep)
	n := 0
	for _, f := range fields {
		if f.Len() >= minFieldLen {
			n++
		}
	}
	if n > 1 {
		if err := pattern.Emit(sink, contract.Group, leader); err != nil {
			return err
		}
	}
	for _, f := range fields {
		if err := b.f.field(f, subfieldSep, sink); err != nil {
			return err
		}
	}
	return nil
}

// PlainDecoder 为 Pica Plain 解码器：按行，空行为记录边界，子字段以 '$' 分隔。
type PlainDecoder struct {
	bufSize int
}

// NewPlain 创建 Pica Plain 解码器。
func NewPlain(opts *Options) *PlainDecoder {
	d := &PlainDecoder{}
	if opts != nil {
		d.bufSize = opts.BufSize
	}
	return d
}

// Decode 在流开始以及每个空行之后输出合成标签。
func (d *PlainDecoder) Decode(ctx context.Context, r io.Reader, sink contract.Sink) error {
	if err := pattern.Emit(sink, contract.Group, leader); err != nil {
		return err
	}
	return pattern.Run(ctx, pattern.LF(r, d.bufSize), &plain{}, sink)
}

type plain struct {
	f fieldWriter
}

func (p *plain) Process(line bytesref.Ref, sink contract.Sink) error {
	if line.IsEmpty() {
		return pattern.Emit(sink, contract.Group, leader)
	}
	return p.f.field(line, plainSep, sink)
}

type fieldWriter struct {
	buf []byte
}

// field 输出一个字段及其子字段；过短的字段静默丢弃。
func (w *fieldWriter) field(f bytesref.Ref, sep byte, sink contract.Sink) error {
	if f.Len() < minFieldLen {
		return nil
	}
	tag := f.Slice(0, 3)
	if tag.HasPrefix("00") {
		w.buf = append(append(w.buf[:0], tag.Bytes()...), f.From(controlOff).Bytes()...)
		return pattern.Emit(sink, contract.Field, w.buf)
	}
	segs := f.Split(sep)
	w.buf = append(append(w.buf[:0], tag.Bytes()...), f.At(3), indicator2(segs[0]))
	if err := pattern.Emit(sink, contract.Field, w.buf); err != nil {
		return err
	}
	for _, sf := range segs[1:] {
		if sf.Len() <= 1 {
			continue
		}
		if err := sink.Chunk(contract.Chunk{Separator: contract.Unit, Data: sf}); err != nil {
			return err
		}
	}
	return nil
}

// indicator2 由出现次数 "/NN" 两位数字计算：'0' + 10*d1 + d2。
// 两位出现次数（>=10）会得到非数字字节，保持该算术不做修正。
func indicator2(header bytesref.Ref) byte {
	if header.Len() != occurrenceHeaderLen {
		return ' '
	}
	d1, d2 := header.At(5)-'0', header.At(6)-'0'
	return '0' + 10*d1 + d2
}

var (
	_ contract.Decoder = (*Decoder)(nil)
	_ contract.Decoder = (*PlainDecoder)(nil)
)
