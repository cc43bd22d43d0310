package contract

import (
	"context"
	"io"
)

// Decoder: 将单个输入字节流解码为规范事件并推送到 sink。
// 约束：
//  1. 同步、无内部并发；事件按输入顺序推送；
//  2. 每次调用的方言状态（上一记录号、待续字段头等）仅存活于本次调用，实例可复用；
//  3. 正常结束时恰好推送一次空载荷 File；
//  4. 仅上抛 I/O 错误、sink 错误与 ctx 取消；格式异常按方言策略静默丢弃。
type Decoder interface {
	Decode(ctx context.Context, r io.Reader, sink Sink) error
}

// DecoderFunc 将函数适配为 Decoder。
type DecoderFunc func(ctx context.Context, r io.Reader, sink Sink) error

func (f DecoderFunc) Decode(ctx context.Context, r io.Reader, sink Sink) error { return f(ctx, r, sink) }
