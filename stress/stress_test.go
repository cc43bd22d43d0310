package stress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfgpkg "marcstream/internal/config"
	"marcstream/internal/pipeline"
	"marcstream/plugins/sink/stats"
)

const (
	files          = 32
	recordsPerFile = 500
)

// baseConfig 构造可运行的最小配置：目录输入、sisis 方言、丢弃型 Writer。
func baseConfig(input string, conc int) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Concurrency = conc
	cfg.Dialect = "sisis"
	cfg.Components.Reader = "fs"
	cfg.Components.Writer = "discard"
	cfg.Logging.Level = "error"
	cfg.Options.Reader = json.RawMessage(`{"include_exts":[".seq"]}`)
	cfg.Options.Writer = nil
	return cfg
}

// runPipeline 执行完整流水线，全部事件额外推送给 shared。
func runPipeline(t *testing.T, cfg cfgpkg.Config, shared *stats.Sink) ([]pipeline.Result, error) {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return nil, err
	}
	comp.Shared = shared
	return pipeline.Run(context.Background(), comp, set, nil)
}

// genInputs 在 dir 下生成 files 个 sisis 文件。
func genInputs(t *testing.T, dir string) {
	t.Helper()
	for i := 0; i < files; i++ {
		var b strings.Builder
		for j := 0; j < recordsPerFile; j++ {
			fmt.Fprintf(&b, "0000:ID-%d-%d\n0331:Titel %d\n0100.01a:Verfasser %d\n9999:\n", i, j, j, i)
		}
		p := filepath.Join(dir, fmt.Sprintf("f%03d.seq", i))
		require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	}
}

// TestStress 以不同并发度重复运行，核对共享汇总并报告延迟。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("short 模式跳过压力测试")
	}
	dir := t.TempDir()
	genInputs(t, dir)

	levels := []int{1, 8, 16, 32, 64}
	const runs = 3
	var digest uint64
	for _, conc := range levels {
		conc := conc
		t.Run(fmt.Sprintf("并发%d", conc), func(t *testing.T) {
			var latencies []time.Duration
			successes := 0
			for i := 0; i < runs; i++ {
				shared := stats.New()
				start := time.Now()
				results, err := runPipeline(t, baseConfig(dir, conc), shared)
				dur := time.Since(start)
				if err != nil {
					t.Errorf("run %d: %v", i, err)
					continue
				}
				if len(results) != files {
					t.Errorf("run %d: 文件数 %d", i, len(results))
					continue
				}
				tot := pipeline.Totals(results)
				snap := shared.Snapshot()
				if tot.Records != files*recordsPerFile || snap.Records != tot.Records || snap.Fields != tot.Fields {
					t.Errorf("run %d: 汇总不一致 totals=%+v shared=%+v", i, tot, snap)
					continue
				}
				// 单文件摘要与并发度无关
				if digest == 0 {
					digest = results[0].Stats.Digest
				} else if results[0].Stats.Digest != digest {
					t.Errorf("run %d: 摘要漂移", i)
					continue
				}
				successes++
				latencies = append(latencies, dur)
			}
			if successes == 0 {
				t.Fatalf("全部运行失败")
			}
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			p95 := latencies[idx]
			t.Logf("并发%d 成功率%.2f 平均%v 95%%延迟%v", conc, float64(successes)/float64(runs), avg, p95)
		})
	}
}
