package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Logger 为结构化日志器：go-kit JSON 单行输出，按级别过滤。
type Logger struct {
	corrID string
	level  Level
	base   kitlog.Logger
	sink   *RotatingFile
}

// NewLogger 通过配置的 level 初始化，并将日志写入 logs/ 目录，10MiB 轮转。
func NewLogger(corrID, lv string) *Logger {
	sink := NewRotatingFile("logs", 10*1024*1024)
	l := NewLoggerTo(sink, corrID, lv)
	l.sink = sink
	return l
}

// NewLoggerTo 将日志写入任意 w（例如 stderr 或测试缓冲）。
func NewLoggerTo(w io.Writer, corrID, lv string) *Logger {
	lvl := parseLevel(strings.TrimSpace(lv))
	base := kitlog.NewJSONLogger(kitlog.NewSyncWriter(w))
	base = level.NewFilter(base, allow(lvl))
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC, "corr_id", corrID)
	return &Logger{corrID: corrID, level: lvl, base: base}
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func allow(lv Level) level.Option {
	switch lv {
	case Debug:
		return level.AllowDebug()
	case Warn:
		return level.AllowWarn()
	case Error:
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// Event 为标准事件结构；写出时展开为 go-kit 键值对，空字段省略。
type Event struct {
	Comp    string
	Stage   string // start|finish|error
	Code    string
	DurMS   int64
	Count   int64
	FileID  string
	Dialect string
	Msg     string
	KV      map[string]string
}

func (ev Event) keyvals() []interface{} {
	kv := []interface{}{"comp", ev.Comp, "stage", ev.Stage}
	if ev.Code != "" {
		kv = append(kv, "code", ev.Code)
	}
	if ev.DurMS != 0 {
		kv = append(kv, "dur_ms", ev.DurMS)
	}
	if ev.Count != 0 {
		kv = append(kv, "count", ev.Count)
	}
	if ev.FileID != "" {
		kv = append(kv, "file_id", ev.FileID)
	}
	if ev.Dialect != "" {
		kv = append(kv, "dialect", ev.Dialect)
	}
	if len(ev.KV) > 0 {
		kv = append(kv, "kv", ev.KV)
	}
	return append(kv, "msg", ev.Msg)
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || l.base == nil {
		return
	}
	var lg kitlog.Logger
	switch lv {
	case Debug:
		lg = level.Debug(l.base)
	case Warn:
		lg = level.Warn(l.base)
	case Error:
		lg = level.Error(l.base)
	default:
		lg = level.Info(l.base)
	}
	if err := lg.Log(ev.keyvals()...); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
	}
}

// Close 关闭底层轮转文件（若有）。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 file_id/dialect 的 start。
func (l *Logger) StartWith(comp, msg, fileID, dialect string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", FileID: fileID, Dialect: dialect, Msg: msg})
	return &Timer{l: l, comp: comp, fileID: fileID, dialect: dialect, t0: time.Now()}
}

// StartWithKV 同 StartWith，附带键值。
func (l *Logger) StartWithKV(comp, msg, fileID, dialect string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", FileID: fileID, Dialect: dialect, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, fileID: fileID, dialect: dialect, t0: time.Now()}
}

func since(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return time.Since(*t).Milliseconds()
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg})
}

// ErrorWith 支持 file_id/dialect。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, fileID, dialect string) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg, FileID: fileID, Dialect: dialect})
}

// ErrorWithKV 支持附带键值对（例如出错路径、记录序号）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, fileID, dialect string, kv map[string]string) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: since(durSince), Msg: msg, FileID: fileID, Dialect: dialect, KV: kv})
}

// Warn 记录告警，不中断流程。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(Warn, Event{Comp: comp, Stage: "warn", Msg: msg, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// DebugStart 输出调试级别的 start 事件（仅在 level=debug 时写出）。
func (l *Logger) DebugStart(comp, msg, fileID, dialect string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", FileID: fileID, Dialect: dialect, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l       *Logger
	comp    string
	fileID  string
	dialect string
	t0      time.Time
}

// Finish 记录 finish；count 通常为记录数。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, FileID: t.fileID, Dialect: t.dialect, Msg: msg})
}

// Elapsed 返回自 start 起的耗时。
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}
