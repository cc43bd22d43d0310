// Package scan 提供固定容量的滑动扫描窗口，用于在不回扫的前提下判定分隔模式。
package scan

// Window: 环形缓冲，保存最近写入的至多 cap 个字节。
// 约束：Append 为 O(1)、零分配；按 旧→新 读出的内容恒为最近 min(cap, total) 个字节。
type Window struct {
	buf   []byte
	head  int // 下一次写入位置
	count int
}

// New 创建容量为 n 的窗口；n<1 时按 1 处理。
func New(n int) *Window {
	if n < 1 {
		n = 1
	}
	return &Window{buf: make([]byte, n)}
}

// Cap 返回窗口容量。
func (w *Window) Cap() int { return len(w.buf) }

// Len 返回当前有效字节数。
func (w *Window) Len() int { return w.count }

// Append 写入一个字节；满时丢弃最旧字节。
func (w *Window) Append(b byte) {
	w.buf[w.head] = b
	w.head++
	if w.head == len(w.buf) {
		w.head = 0
	}
	if w.count < len(w.buf) {
		w.count++
	}
}

// Reset 清空窗口（不释放内存）。
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}

// at 返回自最旧字节起第 i 个字节（0 <= i < count）。
func (w *Window) at(i int) byte {
	start := w.head - w.count
	if start < 0 {
		start += len(w.buf)
	}
	j := start + i
	if j >= len(w.buf) {
		j -= len(w.buf)
	}
	return w.buf[j]
}

// HasSuffix 判断最近写入的 len(p) 个字节是否等于 p。
// len(p) 超过当前有效字节数时返回 false。
func (w *Window) HasSuffix(p []byte) bool {
	if len(p) == 0 || len(p) > w.count {
		return false
	}
	off := w.count - len(p)
	for i, c := range p {
		if w.at(off+i) != c {
			return false
		}
	}
	return true
}

// Bytes 按 旧→新 返回窗口内容的副本。
func (w *Window) Bytes() []byte {
	out := make([]byte, w.count)
	for i := range out {
		out[i] = w.at(i)
	}
	return out
}
