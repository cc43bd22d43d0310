package bytesref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBorrowAliases 借用视图与原缓冲共享内存；Copy 不共享。
func TestBorrowAliases(t *testing.T) {
	buf := []byte("abc")
	b := Borrow(buf)
	c := Copy(buf)
	buf[0] = 'x'
	assert.Equal(t, "xbc", b.UTF8())
	assert.Equal(t, "abc", c.UTF8())
}

func TestSliceClamp(t *testing.T) {
	r := String("0123456789")
	assert.Equal(t, "234", r.Slice(2, 5).UTF8())
	assert.Equal(t, "89", r.Slice(8, 100).UTF8())
	assert.True(t, r.Slice(-3, 0).IsEmpty())
	assert.True(t, r.Slice(7, 3).IsEmpty())
	assert.Equal(t, "789", r.From(7).UTF8())
}

// TestSliceDoesNotLeakCapacity 子视图 append 不得覆盖父视图后续字节。
func TestSliceDoesNotLeakCapacity(t *testing.T) {
	r := String("abcdef")
	s := r.Slice(0, 2)
	_ = append(s.Bytes(), 'Z')
	assert.Equal(t, "abcdef", r.UTF8())
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "abc", []string{"abc"}},
		{"middle", "a\x1fb\x1fc", []string{"a", "b", "c"}},
		{"leading", "\x1fab", []string{"", "ab"}},
		{"trailing", "ab\x1f", []string{"ab", ""}},
		{"empty", "", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := String(tt.in).Split(0x1f)
			got := make([]string, len(parts))
			for i, p := range parts {
				got[i] = p.UTF8()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitString(t *testing.T) {
	parts := String("$$aTitle$$bSub").SplitString("$$")
	require.Len(t, parts, 3)
	assert.True(t, parts[0].IsEmpty())
	assert.Equal(t, "aTitle", parts[1].UTF8())
	assert.Equal(t, "bSub", parts[2].UTF8())
}

func TestIndexByte(t *testing.T) {
	r := String("a:b:c")
	assert.Equal(t, 1, r.IndexByte(':', 0))
	assert.Equal(t, 3, r.IndexByte(':', 2))
	assert.Equal(t, -1, r.IndexByte(':', 4))
	assert.Equal(t, -1, r.IndexByte(':', 99))
	assert.Equal(t, 2, r.Index([]byte("b:")))
}

func TestDigitsAndPrefix(t *testing.T) {
	assert.True(t, String("0123").IsDigits())
	assert.False(t, String("01a3").IsDigits())
	assert.False(t, String("").IsDigits())
	assert.True(t, String("### x").HasPrefix("###"))
	assert.False(t, String("##").HasPrefix("###"))
}

func TestDecode(t *testing.T) {
	r := Borrow([]byte{'M', 0xfc, 'n', 'c', 'h', 'e', 'n'})
	assert.Equal(t, "München", r.Latin1())
	assert.Equal(t, "Zürich", String("Zürich").UTF8())
	assert.Equal(t, "", Ref{}.Latin1())
}
