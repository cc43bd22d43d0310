// Package mab 解码 MAB 磁盘格式（MAB-Diskette）。
//
// 行格式：4 位字段号（3 位 tag + 指示符 1），第 5 字节若为子字段分隔符则按其拆分子字段，
// 否则自第 6 字节起整体作为合成子字段 a。"###" 行携带记录标签。
// 首个 4 字节不全为数字且不是 "###" 的行视为上一字段的续行。
package mab

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/pkg/label"
	"marcstream/pkg/pattern"
)

const (
	// DefaultSubfieldDelimiter: 缺省子字段分隔符。
	DefaultSubfieldDelimiter = 0x1F

	leaderTag = "###"
	leaderOff = 4
	numLen    = 4
	valueOff  = 5
)

// Options 为 MAB 解码器配置。
type Options struct {
	BufSize int `json:"buf_size"`
	// CRLF: 行以 "\r\n" 结束（缺省 "\n"）。
	CRLF bool `json:"crlf"`
	// SubfieldDelimiter: 子字段分隔符；0 表示缺省 0x1F。
	SubfieldDelimiter byte `json:"subfield_delimiter"`
}

type Decoder struct {
	bufSize int
	crlf    bool
	delim   byte
}

// New 创建 MAB 解码器。
func New(opts *Options) *Decoder {
	d := &Decoder{delim: DefaultSubfieldDelimiter}
	if opts != nil {
		d.bufSize = opts.BufSize
		d.crlf = opts.CRLF
		if opts.SubfieldDelimiter != 0 {
			d.delim = opts.SubfieldDelimiter
		}
	}
	return d
}

func (d *Decoder) Decode(ctx context.Context, r io.Reader, sink contract.Sink) error {
	in := pattern.LF(r, d.bufSize)
	if d.crlf {
		in = pattern.CRLF(r, d.bufSize)
	}
	return pattern.Run(ctx, in, &processor{delim: d.delim}, sink)
}

// subfieldIDLen 返回字段的子字段标识长度：控制字段（00x）无子字段。
func subfieldIDLen(tag bytesref.Ref) int {
	if tag.HasPrefix("00") {
		return 0
	}
	return 1
}

// processor 保存上一次输出的字段头，供续行原样重发。
type processor struct {
	delim  byte
	header []byte
	buf    []byte
}

func (p *processor) Process(line bytesref.Ref, sink contract.Sink) error {
	if line.IsEmpty() {
		return nil
	}
	if line.HasPrefix(leaderTag) {
		p.header = p.header[:0]
		return pattern.Emit(sink, contract.Group, label.FromBytes(line.From(leaderOff).Bytes()).Bytes())
	}
	if line.Len() < numLen || !line.Slice(0, numLen).IsDigits() {
		return p.continuation(line, sink)
	}

	tag := line.Slice(0, 3)
	if subfieldIDLen(tag) == 0 {
		p.header = append(append(p.header[:0], tag.Bytes()...), line.From(valueOff).Bytes()...)
		return pattern.Emit(sink, contract.Field, p.header)
	}
	p.header = append(append(p.header[:0], tag.Bytes()...), line.At(3), ' ')
	if err := pattern.Emit(sink, contract.Field, p.header); err != nil {
		return err
	}
	if line.Len() > numLen && line.At(numLen) == p.delim {
		for _, sf := range line.From(numLen + 1).Split(p.delim) {
			if sf.IsEmpty() {
				continue
			}
			if err := sink.Chunk(contract.Chunk{Separator: contract.Unit, Data: sf}); err != nil {
				return err
			}
		}
		return nil
	}
	if value := line.From(valueOff); !value.IsEmpty() {
		return p.synthetic(value, sink)
	}
	return nil
}

// continuation 重发上一字段头，续行文本整体作为子字段 a；无前序字段时丢弃。
func (p *processor) continuation(line bytesref.Ref, sink contract.Sink) error {
	if len(p.header) == 0 {
		return nil
	}
	if err := pattern.Emit(sink, contract.Field, p.header); err != nil {
		return err
	}
	return p.synthetic(line, sink)
}

func (p *processor) synthetic(value bytesref.Ref, sink contract.Sink) error {
	p.buf = append(append(p.buf[:0], 'a'), value.Bytes()...)
	return pattern.Emit(sink, contract.Unit, p.buf)
}

var _ contract.Decoder = (*Decoder)(nil)
