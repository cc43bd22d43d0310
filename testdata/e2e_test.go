package testdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "marcstream/internal/config"
	"marcstream/internal/pipeline"
	"marcstream/pkg/contract"
	"marcstream/pkg/iso2709"
	"marcstream/pkg/registry"
)

// baseConfig 构造可运行的最小配置：单输入、fs Reader、fs Writer。
func baseConfig(input, dialect, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Dialect = dialect
	cfg.Components.Reader = "fs"
	cfg.Components.Writer = "fs"
	cfg.Logging.Level = "error"
	cfg.Options.Decoder = nil
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"atomic":false,"flat":true}`, filepath.ToSlash(outDir)))
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) ([]pipeline.Result, error) {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

// directEvents 绕过流水线直接解码，作为期望事件序列。
func directEvents(t *testing.T, dialect, path string) []string {
	t.Helper()
	dec, err := registry.Decoder[dialect](nil)
	require.NoError(t, err)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var rec contract.Recorder
	require.NoError(t, dec.Decode(context.Background(), f, &rec))
	return rec.Strings()
}

func readDump(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var rec contract.Recorder
	require.NoError(t, iso2709.NewReader(f, 0).Decode(context.Background(), &rec))
	return rec.Strings()
}

// TestE2ECanonicalDump: 方言输入 → 规范转储 → iso2709 读回，事件序列一致；
// 以转储为输入再跑一遍，摘要不变。
func TestE2ECanonicalDump(t *testing.T) {
	cases := []struct {
		file, dialect string
		records       int64
	}{
		{"sample.seq", "sisis", 2},
		{"sample.aleph", "aleph", 2},
	}
	for _, tc := range cases {
		t.Run(tc.dialect, func(t *testing.T) {
			in := filepath.Join("records", tc.file)
			outDir := t.TempDir()
			results, err := runPipeline(t, baseConfig(in, tc.dialect, outDir))
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tc.records, results[0].Stats.Records)

			dump := filepath.Join(outDir, tc.file+".iso")
			if diff := cmp.Diff(directEvents(t, tc.dialect, in), readDump(t, dump)); diff != "" {
				t.Fatalf("dump mismatch (-want +got):\n%s", diff)
			}

			again, err := runPipeline(t, baseConfig(dump, "iso2709", t.TempDir()))
			require.NoError(t, err)
			require.Len(t, again, 1)
			assert.Equal(t, results[0].Stats.Digest, again[0].Stats.Digest)
			assert.Equal(t, results[0].Written, again[0].Written)
		})
	}
}

// TestE2ECompressedInput: .gz 输入由 Reader 透明解压。
func TestE2ECompressedInput(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("records", "sample.seq"))
	require.NoError(t, err)
	dir := t.TempDir()
	gz := filepath.Join(dir, "sample.seq.gz")
	f, err := os.Create(gz)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	cfg := baseConfig(dir, "sisis", "")
	cfg.Components.Writer = "discard"
	cfg.Options.Writer = nil
	results, err := runPipeline(t, cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].Stats.Records)
}

func TestE2EUnknownDialect(t *testing.T) {
	_, err := runPipeline(t, baseConfig(filepath.Join("records", "sample.seq"), "marcxml", t.TempDir()))
	assert.ErrorIs(t, err, contract.ErrUnknownDialect)
}

// TestE2EOutputFailure: 输出目录不可用时整体失败，且不留下产物。
func TestE2EOutputFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	_, err := runPipeline(t, baseConfig(filepath.Join("records", "sample.seq"), "sisis", filepath.Join(blocker, "out")))
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(blocker, "out", "sample.seq.iso"))
	assert.Error(t, statErr)
}
