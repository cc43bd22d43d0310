package pattern

import (
	"context"
	"io"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
)

// Processor 将一帧原始字节重新解释为零或多个规范事件。
// 帧视图仅在本次调用内有效；处理器自行保存跨帧状态（例如上一记录号）。
type Processor interface {
	Process(frame bytesref.Ref, sink contract.Sink) error
}

// ProcessorFunc 将函数适配为 Processor。
type ProcessorFunc func(frame bytesref.Ref, sink contract.Sink) error

func (f ProcessorFunc) Process(frame bytesref.Ref, sink contract.Sink) error { return f(frame, sink) }

// Verbatim 将每帧原样作为 Unit 事件推送。
var Verbatim = ProcessorFunc(func(frame bytesref.Ref, sink contract.Sink) error {
	return sink.Chunk(contract.Chunk{Separator: contract.Unit, Data: frame})
})

// Run 为通用帧循环：逐帧调用 proc，输入耗尽后推送结束事件 File。
// 帧之间检查 ctx；I/O、处理器与 sink 错误原样上抛，此时不推送 File。
func Run(ctx context.Context, p *Reader, proc Processor, sink contract.Sink) error {
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		frame, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := proc.Process(frame, sink); err != nil {
			return err
		}
	}
	return sink.Chunk(contract.EndChunk)
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Emit 推送一个以 data 为载荷的事件；调用返回后 data 可被复用。
func Emit(sink contract.Sink, sep contract.Separator, data []byte) error {
	return sink.Chunk(contract.Chunk{Separator: sep, Data: bytesref.Borrow(data)})
}
