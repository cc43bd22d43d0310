// Package sisis 解码 Sisis 导出格式：每行 "NNNN[.suffix]:value"。
//
// 字段号首位为指示符 1，其后 3 位为 tag；后缀末字节为指示符 2。
// 0000 映射为控制字段 001；9999 结束当前记录且不产生字段。
package sisis

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/pkg/label"
	"marcstream/pkg/pattern"
)

const numLen = 4

var leader = label.Default().Bytes()

// Options 为 Sisis 解码器配置。
type Options struct {
	BufSize int `json:"buf_size"`
}

type Decoder struct {
	bufSize int
}

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

type processor struct {
	leaderEmitted bool
	buf           []byte
}

func (p *processor) Process(line bytesref.Ref, sink contract.Sink) error {
	colon := line.IndexByte(':', 0)
	if colon < numLen {
		return nil
	}
	num := line.Slice(0, numLen)
	if !num.IsDigits() {
		return nil
	}
	if num.EqualString("9999") {
		p.leaderEmitted = false
		return nil
	}
	if !p.leaderEmitted {
		p.leaderEmitted = true
		if err := pattern.Emit(sink, contract.Group, leader); err != nil {
			return err
		}
	}

	value := line.From(colon + 1)
	if num.EqualString("0000") {
		p.buf = append(append(p.buf[:0], "001"...), value.Bytes()...)
		return pattern.Emit(sink, contract.Field, p.buf)
	}

	ind1, tag := num.At(0), num.Slice(1, numLen)
	suffix := line.Slice(numLen, colon)
	ind2 := byte(' ')
	if suffix.Len() > 1 {
		ind2 = suffix.At(suffix.Len() - 1)
	}
	p.buf = append(p.buf[:0], tag.Bytes()...)
	if tag.HasPrefix("00") {
		if suffix.Len() <= 1 {
			p.buf = append(p.buf, value.Bytes()...)
			return pattern.Emit(sink, contract.Field, p.buf)
		}
		// 带后缀的控制区字段移入 9xx9，避免与真正的控制字段冲突
		p.buf[0], ind1 = '9', '9'
	}
	p.buf = append(p.buf, ind1, ind2)
	if err := pattern.Emit(sink, contract.Field, p.buf); err != nil {
		return err
	}
	p.buf = append(append(p.buf[:0], 'a'), value.Bytes()...)
	return pattern.Emit(sink, contract.Unit, p.buf)
}

var _ contract.Decoder = (*Decoder)(nil)
