package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"marcstream/internal/diag"
	"marcstream/pkg/contract"
	"marcstream/pkg/iso2709"
	"marcstream/plugins/sink/stats"
)

// - 单点并发：仅此层管理并发与背压；Reader/Decoder/Writer 均为同步实现。
// - 单文件单解码：每个输入文件独占一次 Decode 调用，事件按输入顺序推送。
// - 首错取消：任一文件失败即 cancel 整体；排空后返回首错。
// - 共享 Sink：所有文件的事件额外推送给 Shared，经 contract.Locked 串行化，仅保证单文件内顺序。

// Components 聚合运行所需的组件。
type Components struct {
	Reader  contract.Reader
	Decoder contract.Decoder
	// Writer 为 nil 时仅统计不落盘。
	Writer contract.Writer
	// Shared 可选：接收全部文件的事件。
	Shared contract.Sink
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Inputs 为空表示 STDIN（由 Reader 决定）。
	Inputs      []string
	Concurrency int
	// Dialect 仅用于日志与指标标注。
	Dialect string
}

// Result 为单个文件的处理结果。
type Result struct {
	FileID   contract.FileID
	Stats    stats.Snapshot
	Written  int64
	Duration time.Duration
}

// Run 执行流水线：Reader → Decoder → (stats, meter, shared, Encoder → Writer)。
// 返回结果按 Reader 遍历顺序排列；出错时返回首错，结果为 nil。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) ([]Result, error) {
	if err := sanity(comp); err != nil {
		return nil, errors.WithMessage(err, "sanity")
	}
	if set.Concurrency < 1 {
		set.Concurrency = 1
	}
	var shared contract.Sink
	if comp.Shared != nil {
		shared = contract.Locked(comp.Shared)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(set.Concurrency)

	var results []*Result
	rtimer := logger.Start("reader", "iterate")
	err := comp.Reader.Iterate(gctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res := &Result{FileID: fid}
		results = append(results, res)
		// 达到并发上限时阻塞，形成背压
		g.Go(func() error {
			defer rc.Close()
			return processFile(gctx, comp, set, shared, logger, rc, res)
		})
		return nil
	})
	// 文件级首错优先；此时 Iterate 通常只是观察到取消
	if werr := g.Wait(); werr != nil {
		return nil, werr
	}
	if err != nil {
		fail(logger, "reader", "iterate failed", "", set.Dialect, err)
		return nil, errors.Wrap(err, "reader iterate")
	}
	rtimer.Finish("iterate", int64(len(results)))
	diag.IncOp("reader", "finish", "success")

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = *r
	}
	return out, nil
}

// processFile 解码单个文件；Writer 经 io.Pipe 与解码并行消费编码字节。
func processFile(ctx context.Context, comp Components, set Settings, shared contract.Sink, logger *diag.Logger, rc io.Reader, res *Result) error {
	fid := string(res.FileID)
	term := diag.GetTerminal()
	term.FileStart(fid)
	t0 := time.Now()
	ok := false
	st := stats.New()
	defer func() {
		res.Stats = st.Snapshot()
		res.Duration = time.Since(t0)
		term.FileFinish(ok, res.Duration, res.Stats.Records, res.Stats.Bytes)
		diag.ObserveDuration("pipeline", "file", res.Duration.Milliseconds())
	}()

	sinks := []contract.Sink{st, diag.NewChunkMeter(set.Dialect)}
	if term != nil {
		sinks = append(sinks, progress(term, st))
	}
	if shared != nil {
		sinks = append(sinks, shared)
	}

	dtimer := logger.StartWith("decoder", "decode", fid, set.Dialect)
	if comp.Writer == nil {
		if err := comp.Decoder.Decode(ctx, rc, contract.Tee(sinks...)); err != nil {
			fail(logger, "decoder", "decode failed", fid, set.Dialect, err)
			return errors.Wrapf(err, "decode %s", fid)
		}
		dtimer.Finish("decode", st.Snapshot().Records)
		diag.IncOp("decoder", "finish", "success")
		ok = true
		return nil
	}

	pr, pw := io.Pipe()
	enc := iso2709.NewEncoder(pw)
	sinks = append(sinks, enc)

	fg, fctx := errgroup.WithContext(ctx)
	fg.Go(func() error {
		wtimer := logger.StartWith("writer", "write", fid, set.Dialect)
		err := comp.Writer.Write(fctx, contract.ArtifactID(res.FileID), pr)
		// 提前返回时解除编码端阻塞
		_ = pr.CloseWithError(errWriterClosed(err))
		if err != nil {
			fail(logger, "writer", "write failed", fid, set.Dialect, err)
			return errors.Wrapf(err, "write %s", fid)
		}
		wtimer.Finish("write", 0)
		diag.IncOp("writer", "finish", "success")
		return nil
	})
	fg.Go(func() error {
		err := comp.Decoder.Decode(fctx, rc, contract.Tee(sinks...))
		_ = pw.CloseWithError(err)
		if err != nil {
			fail(logger, "decoder", "decode failed", fid, set.Dialect, err)
			return errors.Wrapf(err, "decode %s", fid)
		}
		dtimer.Finish("decode", st.Snapshot().Records)
		diag.IncOp("decoder", "finish", "success")
		return nil
	})
	if err := fg.Wait(); err != nil {
		return err
	}
	res.Written = enc.Written()
	ok = true
	return nil
}

// errWriterClosed: Writer 成功返回但未读完时，编码端写入得到 io.ErrClosedPipe。
func errWriterClosed(err error) error {
	if err == nil {
		return io.ErrClosedPipe
	}
	return err
}

// progress 每 progressEvery 条记录刷新一次终端进度。
const progressEvery = 256

func progress(term *diag.Terminal, st *stats.Sink) contract.Sink {
	var n int
	return contract.SinkFunc(func(c contract.Chunk) error {
		if c.Separator != contract.Group {
			return nil
		}
		if n++; n%progressEvery == 0 {
			s := st.Snapshot()
			term.FileProgress(s.Records, s.Bytes)
		}
		return nil
	})
}

// fail 记录错误日志与计数。
func fail(logger *diag.Logger, comp, msg, fid, dialect string, err error) {
	code := diag.Classify(err)
	logger.ErrorWithKV(comp, string(code), msg, nil, fid, dialect, map[string]string{"err": err.Error()})
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

func sanity(c Components) error {
	if c.Reader == nil || c.Decoder == nil {
		return errors.Wrap(contract.ErrInvalidInput, "pipeline: missing components")
	}
	return nil
}

// Totals 汇总多个文件的统计（摘要字段不合并，置零）。
func Totals(results []Result) stats.Snapshot {
	var t stats.Snapshot
	for _, r := range results {
		t.Records += r.Stats.Records
		t.Fields += r.Stats.Fields
		t.Subfields += r.Stats.Subfields
		t.Files += r.Stats.Files
		t.Bytes += r.Stats.Bytes
	}
	return t
}
