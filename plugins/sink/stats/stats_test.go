package stats

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marcstream/pkg/bytesref"
	"marcstream/pkg/contract"
	"marcstream/plugins/decoder/pica"
)

func feed(t *testing.T, s contract.Sink, chunks ...contract.Chunk) {
	t.Helper()
	for _, c := range chunks {
		require.NoError(t, s.Chunk(c))
	}
}

func chunk(sep contract.Separator, data string) contract.Chunk {
	return contract.Chunk{Separator: sep, Data: bytesref.String(data)}
}

func TestCounts(t *testing.T) {
	s := New()
	feed(t, s,
		chunk(contract.Group, "00000     2200000   4500"),
		chunk(contract.Field, "021A "),
		chunk(contract.Unit, "aTitel"),
		chunk(contract.Unit, "dZusatz"),
		chunk(contract.File, "tail"),
		contract.EndChunk,
	)
	snap := s.Snapshot()
	assert.Equal(t, int64(1), snap.Records)
	assert.Equal(t, int64(1), snap.Fields)
	assert.Equal(t, int64(2), snap.Subfields)
	assert.Equal(t, int64(1), snap.Files)
	assert.Equal(t, int64(24+5+6+7+4), snap.Bytes)
	assert.Len(t, snap.DigestHex(), 16)

	s.Reset()
	assert.Equal(t, Snapshot{Digest: New().Snapshot().Digest}, s.Snapshot())
}

func TestFirstID(t *testing.T) {
	s := New()
	feed(t, s,
		chunk(contract.Field, "24510"),
		chunk(contract.Field, "001M\xfcnchen-1"),
		chunk(contract.Field, "001ignored"),
	)
	assert.Equal(t, "München-1", s.Snapshot().FirstID)
}

// TestDigestBoundaries 分隔位置不同的序列摘要不同。
func TestDigestBoundaries(t *testing.T) {
	a, b := New(), New()
	feed(t, a, chunk(contract.Unit, "ab"), chunk(contract.Unit, "c"))
	feed(t, b, chunk(contract.Unit, "a"), chunk(contract.Unit, "bc"))
	assert.NotEqual(t, a.Snapshot().Digest, b.Snapshot().Digest)

	c := New()
	feed(t, c, chunk(contract.Field, "ab"), chunk(contract.Unit, "c"))
	assert.NotEqual(t, a.Snapshot().Digest, c.Snapshot().Digest)
}

// TestIdempotentDecode 两个新解码器实例处理同一输入，摘要一致。
func TestIdempotentDecode(t *testing.T) {
	in := "003@ $0PPN-1\n021A $aTitel$dZusatz\n\n003@ $0PPN-2\n144Z/01 $aX\n"
	digest := func() Snapshot {
		s := New()
		require.NoError(t, pica.NewPlain(nil).Decode(context.Background(), strings.NewReader(in), s))
		return s.Snapshot()
	}
	first, second := digest(), digest()
	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), first.Records)
}

func TestLockedConcurrent(t *testing.T) {
	s := New()
	shared := contract.Locked(s)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = shared.Chunk(chunk(contract.Field, "245"))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), s.Snapshot().Fields)
}
