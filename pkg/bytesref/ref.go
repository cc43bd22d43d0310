// Package bytesref 提供只读（约定）字节视图：零拷贝切片、按分隔字节拆分、查找与解码。
package bytesref

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// Ref: 字节区间视图。
// 约束：
//   - Borrow 构造的视图借用调用方缓冲，仅在缓冲复用前有效；
//   - Copy 构造的视图持有私有副本；
//   - 任何方法都不修改底层字节。
type Ref struct {
	b []byte
}

// Borrow 借用 b（不拷贝）。
func Borrow(b []byte) Ref { return Ref{b: b} }

// Copy 拷贝 b 为私有副本。
func Copy(b []byte) Ref {
	if len(b) == 0 {
		return Ref{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return Ref{b: out}
}

// String 以字符串内容构造（拥有副本）。
func String(s string) Ref {
	if s == "" {
		return Ref{}
	}
	return Ref{b: []byte(s)}
}

func (r Ref) Len() int { return len(r.b) }

func (r Ref) IsEmpty() bool { return len(r.b) == 0 }

// At 返回第 i 个字节；越界 panic（与切片语义一致）。
func (r Ref) At(i int) byte { return r.b[i] }

// Bytes 返回底层字节。调用方不得修改；需要保留时使用 Clone。
func (r Ref) Bytes() []byte { return r.b }

// Clone 返回持有私有副本的视图。
func (r Ref) Clone() Ref { return Copy(r.b) }

// Slice 返回 [from, to) 子视图（零拷贝）。
// 越界时收敛到有效范围，不 panic。
func (r Ref) Slice(from, to int) Ref {
	if from < 0 {
		from = 0
	}
	if to > len(r.b) {
		to = len(r.b)
	}
	if from >= to {
		return Ref{}
	}
	return Ref{b: r.b[from:to:to]}
}

// From 返回 [from, Len) 子视图。
func (r Ref) From(from int) Ref { return r.Slice(from, len(r.b)) }

// IndexByte 自 from 起查找 c；未找到返回 -1。
func (r Ref) IndexByte(c byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(r.b) {
		return -1
	}
	i := bytes.IndexByte(r.b[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}

// Index 查找 sep 的首次出现；未找到返回 -1。
func (r Ref) Index(sep []byte) int { return bytes.Index(r.b, sep) }

// HasPrefix 判断视图是否以 p 开头。
func (r Ref) HasPrefix(p string) bool {
	return len(r.b) >= len(p) && string(r.b[:len(p)]) == p
}

// Split 按分隔字节拆分为子视图序列（零拷贝）。
// 与 bytes.Split 一致：n 个分隔符产生 n+1 段，空段保留。
func (r Ref) Split(sep byte) []Ref {
	n := bytes.Count(r.b, []byte{sep})
	out := make([]Ref, 0, n+1)
	start := 0
	for i, c := range r.b {
		if c == sep {
			out = append(out, Ref{b: r.b[start:i:i]})
			start = i + 1
		}
	}
	return append(out, Ref{b: r.b[start:]})
}

// SplitString 按多字节分隔符拆分（例如 Aleph 的 "$$"）。
func (r Ref) SplitString(sep string) []Ref {
	parts := bytes.Split(r.b, []byte(sep))
	out := make([]Ref, len(parts))
	for i, p := range parts {
		out[i] = Ref{b: p}
	}
	return out
}

// IsDigits 判断视图非空且全部为 ASCII 数字。
func (r Ref) IsDigits() bool {
	if len(r.b) == 0 {
		return false
	}
	for _, c := range r.b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// UTF8 按 UTF-8 解释为字符串（不校验，非法序列原样保留）。
func (r Ref) UTF8() string { return string(r.b) }

// Latin1 按 ISO-8859-1 解码为 UTF-8 字符串。
func (r Ref) Latin1() string {
	if len(r.b) == 0 {
		return ""
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(r.b)
	if err != nil {
		// ISO-8859-1 覆盖全部 256 个字节值，这里不应出错
		return string(r.b)
	}
	return string(out)
}

// Equal 比较两视图内容。
func (r Ref) Equal(o Ref) bool { return bytes.Equal(r.b, o.b) }

// EqualString 比较视图内容与 s。
func (r Ref) EqualString(s string) bool { return string(r.b) == s }
