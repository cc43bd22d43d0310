// Package iso2709 为已符合 ISO 2709 的输入提供直通解码器。
package iso2709

import (
	"context"
	"io"

	"marcstream/pkg/contract"
	iso "marcstream/pkg/iso2709"
)

// Options 为直通解码器配置。
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
	return iso.NewReader(r, d.bufSize).Decode(ctx, sink)
}

var _ contract.Decoder = (*Decoder)(nil)
