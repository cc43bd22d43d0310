// Package bibliomondo 解码 BiblioMondo 导出格式：CRLF 分行，"###" 行携带记录标签，
// 数据字段的子字段以 0x1F 分隔，且每个子字段前多出一个冗余标识字节。
package bibliomondo

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/pkg/label"
	"marcstream/pkg/pattern"
)

const (
	minLen      = 5
	leaderTag   = "###"
	leaderOff   = 4
	subfieldOff = 5
	subfieldSep = 0x1F
)

// Options 为 BiblioMondo 解码器配置。
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
	return pattern.Run(ctx, pattern.CRLF(r, d.bufSize), &processor{}, sink)
}

type processor struct {
	buf []byte
}

func (p *processor) Process(line bytesref.Ref, sink contract.Sink) error {
	// 空行（记录间隔）与过短的行直接丢弃
	if line.Len() < minLen {
		return nil
	}
	if line.HasPrefix(leaderTag) {
		return pattern.Emit(sink, contract.Group, label.FromBytes(line.From(leaderOff).Bytes()).Bytes())
	}
	tag := line.Slice(0, 3)
	if tag.HasPrefix("00") {
		p.buf = append(append(p.buf[:0], tag.Bytes()...), line.From(3).Bytes()...)
		return pattern.Emit(sink, contract.Field, p.buf)
	}
	if err := sink.Chunk(contract.Chunk{Separator: contract.Field, Data: line.Slice(0, subfieldOff)}); err != nil {
		return err
	}
	segs := line.From(subfieldOff).Split(subfieldSep)
	for _, seg := range segs[1:] {
		// 丢弃冗余的首字节
		sf := seg.From(1)
		if sf.IsEmpty() {
			continue
		}
		if err := sink.Chunk(contract.Chunk{Separator: contract.Unit, Data: sf}); err != nil {
			return err
		}
	}
	return nil
}

var _ contract.Decoder = (*Decoder)(nil)
