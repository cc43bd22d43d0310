package contract

import (
	"fmt"
	"sync"

	"marcstream/pkg/bytesref"
)

// Separator: 信息分隔符（ISO 2709 控制字节）。
type Separator byte

const (
	// File: 流结束；无载荷。
	File Separator = 0x1C
	// Group: 记录开始；载荷为 24 字节记录标签。
	Group Separator = 0x1D
	// Field: 字段开始；载荷为 tag+指示符（控制字段为 tag+值）。
	Field Separator = 0x1E
	// Unit: 子字段开始；载荷为子字段标识+值。
	Unit Separator = 0x1F
)

// IsSeparator 判断 b 是否为四个信息分隔符之一。
func IsSeparator(b byte) bool { return b >= byte(File) && b <= byte(Unit) }

func (s Separator) String() string {
	switch s {
	case File:
		return "file"
	case Group:
		return "group"
	case Field:
		return "field"
	case Unit:
		return "unit"
	default:
		return fmt.Sprintf("sep(0x%02x)", byte(s))
	}
}

// Chunk: 规范事件（分隔符 + 数据视图）。
// Data 通常借用解码器内部缓冲，仅在 Sink.Chunk 调用期间有效；需保留时调用 Clone。
type Chunk struct {
	Separator Separator
	Data      bytesref.Ref
}

// Clone 返回持有私有数据副本的 Chunk。
func (c Chunk) Clone() Chunk { return Chunk{Separator: c.Separator, Data: c.Data.Clone()} }

// IsEnd 判断是否为流结束事件（File 且无载荷）。
func (c Chunk) IsEnd() bool { return c.Separator == File && c.Data.IsEmpty() }

func (c Chunk) String() string { return fmt.Sprintf("%s:%q", c.Separator, c.Data.Bytes()) }

// EndChunk 为流结束事件。
var EndChunk = Chunk{Separator: File}

// Sink: 规范事件的唯一推送接口。
// 约束：
//  1. 解码器在自身 goroutine 上同步调用，可调用任意次；
//  2. 每个输入流以一次空载荷 File 结束；
//  3. 返回错误将中止当前流的解码并原样上抛。
type Sink interface {
	Chunk(c Chunk) error
}

// SinkFunc 将函数适配为 Sink。
type SinkFunc func(c Chunk) error

func (f SinkFunc) Chunk(c Chunk) error { return f(c) }

// Tee 将事件按顺序推送给多个 Sink；首个错误即返回。
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(c Chunk) error {
		for _, s := range sinks {
			if err := s.Chunk(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Locked 返回串行化调用的 Sink，供多个解码器并发推送到同一下游。
// 仅保证单次调用互斥；跨解码器的事件交错顺序不作保证。
func Locked(s Sink) Sink { return &lockedSink{s: s} }

type lockedSink struct {
	mu sync.Mutex
	s  Sink
}

func (l *lockedSink) Chunk(c Chunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Chunk(c)
}

// Recorder 收集事件副本，主要用于测试与小规模调试。
type Recorder struct {
	Chunks []Chunk
}

func (r *Recorder) Chunk(c Chunk) error {
	r.Chunks = append(r.Chunks, c.Clone())
	return nil
}

// Strings 以 "sep:data" 形式返回已记录事件，便于断言与 diff。
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		out[i] = c.Separator.String() + ":" + c.Data.UTF8()
	}
	return out
}

// Count 返回给定分隔符的事件数。
func (r *Recorder) Count(sep Separator) int {
	n := 0
	for _, c := range r.Chunks {
		if c.Separator == sep {
			n++
		}
	}
	return n
}
