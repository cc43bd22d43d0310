package mab

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
)

func decode(t *testing.T, in string, opts *Options) []string {
	t.Helper()
	var rec contract.Recorder
	require.NoError(t, New(opts).Decode(context.Background(), strings.NewReader(in), &rec))
	return rec.Strings()
}

func TestDecodeSubfieldless(t *testing.T) {
	in := "### 01234nM2.0  00217   h\n" +
		"0010 123456\n" +
		"1001 Goethe, Johann Wolfgang\n" +
		"3310 Faust\n" +
		"eine Tragoedie\n" +
		"\n"
	want := []string{
		"group:01234n    0000217   000 ",
		"field:001123456",
		"field:1001 ",
		"unit:aGoethe, Johann Wolfgang",
		"field:3310 ",
		"unit:aFaust",
		"field:3310 ",
		"unit:aeine Tragoedie",
		"file:",
	}
	if diff := cmp.Diff(want, decode(t, in, nil)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDelimited(t *testing.T) {
	in := "### 00000nam  2200000   4500\r\n" +
		"4251$aBerlin$bVerlag\r\n" +
		"zweiter Teil\r\n"
	want := []string{
		"group:00000nam  2200000   4500",
		"field:4251 ",
		"unit:aBerlin",
		"unit:bVerlag",
		"field:4251 ",
		"unit:azweiter Teil",
		"file:",
	}
	got := decode(t, in, &Options{CRLF: true, SubfieldDelimiter: '$'})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

// TestContinuationWithoutHeader 记录开始处的续行没有可重发的字段头，被丢弃。
func TestContinuationWithoutHeader(t *testing.T) {
	got := decode(t, "orphan\n### 00000nam  2200000   4500\nstill orphan\n", nil)
	assert.Equal(t, []string{"group:00000nam  2200000   4500", "file:"}, got)
}

func TestSubfieldIDLen(t *testing.T) {
	assert.Equal(t, 0, subfieldIDLen(bytesref.String("001")))
	assert.Equal(t, 0, subfieldIDLen(bytesref.String("009")))
	assert.Equal(t, 1, subfieldIDLen(bytesref.String("100")))
	assert.Equal(t, 1, subfieldIDLen(bytesref.String("010")))
}

func TestIdempotent(t *testing.T) {
	in := "### 00000nam  2200000   4500\n1001 A\nB\n"
	assert.Equal(t, decode(t, in, nil), decode(t, in, nil))
}
