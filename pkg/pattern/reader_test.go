package pattern

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
)

func frames(t *testing.T, p *Reader) []string {
	t.Helper()
	var out []string
	require.NoError(t, p.Each(func(f bytesref.Ref) error {
		out = append(out, f.UTF8())
		return nil
	}))
	return out
}

func TestLF(t *testing.T) {
	got := frames(t, LF(strings.NewReader("Hello\nWorld"), 0))
	assert.Equal(t, []string{"Hello", "World"}, got)
}

// TestCRLFTrailing 末尾有无分隔符结果一致。
func TestCRLFTrailing(t *testing.T) {
	for _, in := range []string{"Hello\r\nWorld", "Hello\r\nWorld\r\n"} {
		got := frames(t, CRLF(strings.NewReader(in), 0))
		assert.Equal(t, []string{"Hello", "World"}, got, "input %q", in)
	}
}

func TestLeadingPatternYieldsEmptyFrame(t *testing.T) {
	got := frames(t, LF(strings.NewReader("\nabc\n\ndef"), 0))
	assert.Equal(t, []string{"", "abc", "", "def"}, got)
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, frames(t, LF(strings.NewReader(""), 0)))
}

// TestPatternAcrossRefills 模式跨越多次物理读取（逐字节读取与 1 字节缓冲）。
func TestPatternAcrossRefills(t *testing.T) {
	in := "ab$$cd$$$$ef$"
	for _, bufSize := range []int{1, 2, 3, 64} {
		p, err := NewReader(iotest.OneByteReader(strings.NewReader(in)), []byte("$$"), bufSize)
		require.NoError(t, err)
		assert.Equal(t, []string{"ab", "cd", "", "ef$"}, frames(t, p), "bufSize=%d", bufSize)
	}
}

// TestNonOverlapping 连续模式字节不重复计入。
func TestNonOverlapping(t *testing.T) {
	p, err := NewReader(strings.NewReader("aaa"), []byte("aa"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a"}, frames(t, p))
}

func TestLongPattern(t *testing.T) {
	sep := []byte("<END-OF-RECORD>")
	var b bytes.Buffer
	for i := 0; i < 50; i++ {
		b.WriteString(strings.Repeat("x", i))
		b.Write(sep)
	}
	p, err := NewReader(iotest.HalfReader(&b), sep, 7)
	require.NoError(t, err)
	got := frames(t, p)
	require.Len(t, got, 50)
	for i, f := range got {
		assert.Len(t, f, i)
	}
}

func TestEmptyPattern(t *testing.T) {
	_, err := NewReader(strings.NewReader("x"), nil, 0)
	require.ErrorIs(t, err, ErrEmptyPattern)
	require.ErrorIs(t, err, contract.ErrInvalidInput)
}

func TestReadErrorPropagates(t *testing.T) {
	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("abc\nde"), iotest.ErrReader(boom))
	p := LF(r, 4)
	f, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "abc", f.UTF8())
	_, err = p.Next()
	require.ErrorIs(t, err, boom)
}

type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

func TestNoProgress(t *testing.T) {
	_, err := LF(zeroReader{}, 0).Next()
	require.ErrorIs(t, err, io.ErrNoProgress)
}

func TestByteReader(t *testing.T) {
	got := frames(t, Byte(strings.NewReader("a\x1db\x1d"), 0x1d, 0))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []byte{0x1d}, Byte(nil, 0x1d, 0).Pattern())
}

func TestRunEmitsFileOnce(t *testing.T) {
	var rec contract.Recorder
	err := Run(context.Background(), LF(strings.NewReader("x\ny\n"), 0), Verbatim, &rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"unit:x", "unit:y", "file:"}, rec.Strings())
}

func TestRunStopsOnSinkError(t *testing.T) {
	boom := errors.New("sink full")
	n := 0
	sink := contract.SinkFunc(func(contract.Chunk) error {
		n++
		return boom
	})
	err := Run(context.Background(), LF(strings.NewReader("x\ny\n"), 0), Verbatim, sink)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rec contract.Recorder
	err := Run(ctx, LF(strings.NewReader("x\n"), 0), Verbatim, &rec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Chunks)
}
