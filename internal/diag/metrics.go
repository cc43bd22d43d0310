package diag

import (
	"github.com/prometheus/client_golang/prometheus"

	"marcstream/pkg/contract"
)

// 进程级指标，注册在私有 Registry 上：
//   - marcstream_op_total{comp,stage,result}
//   - marcstream_error_total{comp,code}
//   - marcstream_op_duration_ms{comp,stage}
//   - marcstream_chunk_total{dialect,separator}
//   - marcstream_record_total{dialect}
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marcstream",
		Name:      "op_total",
		Help:      "Operations by component, stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marcstream",
		Name:      "error_total",
		Help:      "Errors by component and classified code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marcstream",
		Name:      "op_duration_ms",
		Help:      "Stage duration in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	}, []string{"comp", "stage"})

	chunkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marcstream",
		Name:      "chunk_total",
		Help:      "Canonical events emitted, by dialect and separator.",
	}, []string{"dialect", "separator"})

	recordTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marcstream",
		Name:      "record_total",
		Help:      "Records (group events) emitted, by dialect.",
	}, []string{"dialect"})
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, chunkTotal, recordTotal)
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) { opTotal.WithLabelValues(comp, stage, result).Inc() }

// IncError 按分类累加错误计数。
func IncError(comp, code string) { errorTotal.WithLabelValues(comp, code).Inc() }

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// ObserveChunks 按方言与分隔符累加事件数。
func ObserveChunks(dialect, sep string, n int64) {
	if n > 0 {
		chunkTotal.WithLabelValues(dialect, sep).Add(float64(n))
	}
}

// ObserveRecords 按方言累加记录数。
func ObserveRecords(dialect string, n int64) {
	if n > 0 {
		recordTotal.WithLabelValues(dialect).Add(float64(n))
	}
}

// WriteMetrics 以 Prometheus 文本格式写出全部指标（node_exporter textfile 约定）。
func WriteMetrics(path string) error { return prometheus.WriteToTextfile(path, registry) }

// ChunkMeter 为计数型 Sink：本地累计，收到结束事件时一次性提交到指标。
// 非并发安全，每次解码一个实例。
type ChunkMeter struct {
	dialect string
	n       [4]int64 // 下标 = 分隔符 - File
}

// NewChunkMeter 创建按 dialect 标注的计数 Sink。
func NewChunkMeter(dialect string) *ChunkMeter { return &ChunkMeter{dialect: dialect} }

func (m *ChunkMeter) Chunk(c contract.Chunk) error {
	if contract.IsSeparator(byte(c.Separator)) {
		m.n[c.Separator-contract.File]++
	}
	if c.IsEnd() {
		m.Flush()
	}
	return nil
}

// Flush 提交并清零本地计数。
func (m *ChunkMeter) Flush() {
	for i, n := range m.n {
		ObserveChunks(m.dialect, (contract.File + contract.Separator(i)).String(), n)
	}
	ObserveRecords(m.dialect, m.n[contract.Group-contract.File])
	m.n = [4]int64{}
}

var _ contract.Sink = (*ChunkMeter)(nil)
