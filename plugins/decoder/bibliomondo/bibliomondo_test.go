package bibliomondo

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcstream/pkg/contract"
)

const us = "\x1f"

func decode(t *testing.T, in string) []string {
	t.Helper()
	var rec contract.Recorder
	require.NoError(t, New(nil).Decode(context.Background(), strings.NewReader(in), &rec))
	return rec.Strings()
}

func TestDecode(t *testing.T) {
	in := "### 01234nam  2200217   4500\r\n" +
		"001 BM-0001\r\n" +
		"24510" + us + "xaTitle" + us + "xbSub\r\n" +
		"650 0" + us + "x" + us + "yaTopic\r\n" +
		"\r\n" +
		"### 00000nam  22        4500\r\n"
	want := []string{
		"group:01234nam  2200217   4500",
		"field:001 BM-0001",
		"field:24510",
		"unit:aTitle",
		"unit:bSub",
		"field:650 0",
		"unit:aTopic",
		"group:00000nam  2200000   4500",
		"file:",
	}
	if diff := cmp.Diff(want, decode(t, in)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

// TestShortFrames 少于 5 字节的帧不产生任何事件。
func TestShortFrames(t *testing.T) {
	for _, in := range []string{"", "\r\n", "a\r\n", "001\r\n", "###\r\n", "0012\r\n", "24510"[:4]} {
		assert.Equal(t, []string{"file:"}, decode(t, in), "in=%q", in)
	}
}

func TestIdempotent(t *testing.T) {
	in := "### 00000nam  22        4500\r\n24510" + us + "xaT\r\n"
	assert.Equal(t, decode(t, in), decode(t, in))
}
