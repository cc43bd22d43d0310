package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "marcstream/internal/config"
	"marcstream/internal/diag"
	"marcstream/internal/pipeline"
)

// chdir 切换到临时目录，避免 logs/ 与 .env 污染仓库。
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestRunSisisToCanonicalDump(t *testing.T) {
	dir := chdir(t)
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.seq"), []byte("0000:ID-1\n0331:Titel\n9999:\n0000:ID-2\n"), 0o644))

	out := filepath.Join(dir, "out")
	metrics := filepath.Join(dir, "m.prom")
	code, stdout, stderr := runCLI(t, "--dialect", "sisis", "-o", out, "--status=false", "--metrics-file", metrics, in)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "records=2")
	assert.Contains(t, stdout, "first=ID-1")
	assert.Contains(t, stdout, "total\tfiles=1\trecords=2")

	b, err := os.ReadFile(filepath.Join(out, "a.seq.iso"))
	require.NoError(t, err)
	assert.Equal(t, byte(0x1D), b[24], "leader followed by group separator")

	m, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(m), `marcstream_record_total{dialect="sisis"}`)
}

func TestRunUnknownDialect(t *testing.T) {
	chdir(t)
	code, _, stderr := runCLI(t, "--dialect", "marcxml", "x")
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr, "unknown dialect")
	assert.Contains(t, stderr, "有效配置")
}

func TestRunBadFlag(t *testing.T) {
	chdir(t)
	code, _, _ := runCLI(t, "--no-such-flag")
	assert.Equal(t, exitUsage, code)
	code, _, _ = runCLI(t, "--help")
	assert.Equal(t, exitOK, code)
}

func TestRunInitConfig(t *testing.T) {
	dir := chdir(t)
	// 已存在的变量不会被 .env 覆盖
	t.Setenv("MARCSTREAM_DIALECT", "")
	code, _, _ := runCLI(t, "--init-config")
	require.Equal(t, exitOK, code)
	for _, name := range []string{"marcstream.json", ".env"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	cfg, err := cfgpkg.Load(filepath.Join(dir, "marcstream.json"))
	require.NoError(t, err)
	assert.Equal(t, "iso2709", cfg.Dialect)

	// 第二次不覆盖
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARCSTREAM_DIALECT=mab\n"), 0o644))
	code, _, _ = runCLI(t, "--init-config="+dir)
	require.Equal(t, exitOK, code)
	b, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "MARCSTREAM_DIALECT=mab\n", string(b))
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marcstream.yaml"), []byte("dialect: aleph\nconcurrency: 3\noptions:\n  writer:\n    output_dir: file-out\n    compress: gzip\n"), 0o644))
	t.Setenv("MARCSTREAM_DIALECT", "mab")

	cfg, err := loadConfig(flags{concurrency: 5, outputDir: "cli-out"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mab", cfg.Dialect)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, []string{"-"}, cfg.Inputs)
	assert.JSONEq(t, `{"output_dir":"cli-out","compress":"gzip"}`, string(cfg.Options.Writer))

	cfg, err = loadConfig(flags{dialect: "pica"}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "pica", cfg.Dialect)
	assert.Equal(t, []string{"a", "b"}, cfg.Inputs)
}

func TestRunPipelineError(t *testing.T) {
	dir := chdir(t)
	old := pipelineRun
	defer func() { pipelineRun = old }()
	pipelineRun = func(ctx context.Context, comp pipeline.Components, set pipeline.Settings, logger *diag.Logger) ([]pipeline.Result, error) {
		return nil, os.ErrPermission
	}
	code, _, stderr := runCLI(t, "--status=false", "-o", filepath.Join(dir, "out"), "x")
	assert.Equal(t, exitRun, code)
	assert.Contains(t, stderr, "运行失败")
}

func TestWithOutputDir(t *testing.T) {
	raw, err := withOutputDir(json.RawMessage(`{"ext":".mrc"}`), "o")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ext":".mrc","output_dir":"o"}`, string(raw))
	_, err = withOutputDir(json.RawMessage(`[1]`), "o")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	p := filepath.Join(dir, ".env")
	content := "# c\nexport MARCSTREAM_TEST_A=\"x\\ty\"\nMARCSTREAM_TEST_B='q'\nMARCSTREAM_TEST_C=\nbad\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	t.Setenv("MARCSTREAM_TEST_B", "keep")
	require.NoError(t, loadDotEnv(p))
	defer os.Unsetenv("MARCSTREAM_TEST_A")
	assert.Equal(t, "x\ty", os.Getenv("MARCSTREAM_TEST_A"))
	assert.Equal(t, "keep", os.Getenv("MARCSTREAM_TEST_B"))
	_, set := os.LookupEnv("MARCSTREAM_TEST_C")
	assert.False(t, set)
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing")))
}

func TestPrintSummary(t *testing.T) {
	var sb strings.Builder
	printSummary(&sb, nil)
	assert.Equal(t, "total\tfiles=0\trecords=0\tfields=0\tbytes=0 B\n", sb.String())
}

func TestPreflightOutputDir(t *testing.T) {
	dir := chdir(t)
	cfg := cfgpkg.Defaults()
	cfg.Options.Writer = json.RawMessage(`{"output_dir":"` + filepath.ToSlash(filepath.Join(dir, "new", "out")) + `"}`)
	require.NoError(t, preflightOutputDir(cfg))
	_, err := os.Stat(filepath.Join(dir, "new", "out"))
	assert.NoError(t, err)

	cfg.Components.Writer = "discard"
	assert.NoError(t, preflightOutputDir(cfg))
}
