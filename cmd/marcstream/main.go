package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	cfgpkg "marcstream/internal/config"
	"marcstream/internal/diag"
	"marcstream/internal/pipeline"
	"marcstream/pkg/registry"
)

var pipelineRun = pipeline.Run

// 退出码
const (
	exitOK      = 0
	exitRun     = 1
	exitUsage   = 2
	exitConfig  = 3
	exitMetrics = 4
)

// marcstream [flags] roots...
// 位置参数为 roots（文件/目录 或 "-" 表示 STDIN，不能与其他根混用）。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	config      string
	dialect     string
	concurrency int
	outputDir   string
	logLevel    string
	metricsFile string
	status      bool
	initDir     string
}

func parseFlags(args []string, stderr io.Writer) (flags, []string, error) {
	var f flags
	fs := pflag.NewFlagSet("marcstream", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.config, "config", "c", "", "配置文件（.json/.yaml/.yml）；缺省读取 ./marcstream.json 或 ./marcstream.yaml（若存在）")
	fs.StringVarP(&f.dialect, "dialect", "d", "", "解码方言："+strings.Join(registry.Dialects(), "|"))
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "并发文件数（覆盖配置）")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "规范转储输出目录（覆盖 fs writer 的 output_dir）")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别 debug|info|warn|error")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "结束时以 Prometheus 文本格式写出指标")
	fs.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	fs.StringVar(&f.initDir, "init-config", "", "在指定目录生成 marcstream.json 与 .env 模板（已存在则跳过）；不带值时为当前目录")
	fs.Lookup("init-config").NoOptDefVal = "."
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	return f, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	start := time.Now()
	corrID := genCorrID()
	_ = loadDotEnv(".env")

	fl, roots, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	logger := diag.NewLogger(corrID, "info")
	defer func() { _ = logger.Close() }()

	if fl.initDir != "" {
		if err := initConfig(fl.initDir); err != nil {
			fmt.Fprintf(stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "init-config failed", &start)
			return exitConfig
		}
		return exitOK
	}

	cfg, err := loadConfig(fl, roots)
	if err != nil {
		fmt.Fprintf(stderr, "配置错误: %v\n", err)
		_ = dumpConfig(stderr, cfg)
		logger.Error("config", string(diag.Classify(err)), "load failed", &start)
		return exitConfig
	}

	// 使用最终配置中的日志级别重建 logger
	_ = logger.Close()
	logger = diag.NewLogger(corrID, cfg.Logging.Level)

	if err := preflightOutputDir(cfg); err != nil {
		fmt.Fprintf(stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "preflight failed", &start)
		return exitConfig
	}
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble failed", &start)
		return exitConfig
	}

	term := diag.NewTerminal(stderr, fl.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	term.RunStart(set.Concurrency, set.Dialect)
	logger.DebugStart("config", "effective", "", set.Dialect, map[string]string{
		"inputs_count": fmt.Sprint(len(cfg.Inputs)),
		"concurrency":  fmt.Sprint(cfg.Concurrency),
		"reader":       cfg.Components.Reader,
		"writer":       cfg.Components.Writer,
	})

	code := exitOK
	t := logger.Start("pipeline", "run")
	results, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		c := string(diag.Classify(err))
		logger.Error("pipeline", c, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if c != string(diag.CodeUnknown) {
			diag.IncError("pipeline", c)
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		code = exitRun
	} else {
		printSummary(stdout, results)
		t.Finish("run", pipeline.Totals(results).Records)
		diag.IncOp("pipeline", "finish", "success")
		diag.ObserveDuration("pipeline", "run", time.Since(start).Milliseconds())
		term.RunFinish(true, time.Since(start))
	}

	if fl.metricsFile != "" {
		if err := diag.WriteMetrics(fl.metricsFile); err != nil {
			fmt.Fprintf(stderr, "写出指标失败: %v\n", err)
			if code == exitOK {
				code = exitMetrics
			}
		}
	}
	return code
}

// loadConfig 合并 defaults < 文件 < ENV < CLI 并校验。
func loadConfig(fl flags, roots []string) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()
	path := fl.config
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		for _, name := range []string{"marcstream.json", "marcstream.yaml", "marcstream.yml"} {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		base, err := cfgpkg.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	env, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	cfg = cfgpkg.Merge(cfg, env)

	var cli cfgpkg.Config
	cli.Inputs = roots
	cli.Dialect = fl.dialect
	cli.Concurrency = fl.concurrency
	cli.Logging.Level = fl.logLevel
	if fl.outputDir != "" {
		raw, err := withOutputDir(cfg.Options.Writer, fl.outputDir)
		if err != nil {
			return cfg, err
		}
		cli.Options.Writer = raw
	}
	cfg = cfgpkg.Merge(cfg, cli)
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []string{"-"}
	}
	return cfg, cfgpkg.Validate(cfg)
}

// withOutputDir 在 writer options 中设置 output_dir，保留其他键。
func withOutputDir(raw json.RawMessage, dir string) (json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, errors.Wrap(err, "options.writer")
		}
	}
	v, err := json.Marshal(dir)
	if err != nil {
		return nil, err
	}
	m["output_dir"] = v
	return json.Marshal(m)
}

func printSummary(w io.Writer, results []pipeline.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s\trecords=%s\tfields=%s\tbytes=%s\tdigest=%s",
			r.FileID, humanize.Comma(r.Stats.Records), humanize.Comma(r.Stats.Fields),
			humanize.Bytes(uint64(r.Stats.Bytes)), r.Stats.DigestHex())
		if r.Stats.FirstID != "" {
			fmt.Fprintf(w, "\tfirst=%s", r.Stats.FirstID)
		}
		fmt.Fprintln(w)
	}
	tot := pipeline.Totals(results)
	fmt.Fprintf(w, "total\tfiles=%d\trecords=%s\tfields=%s\tbytes=%s\n",
		len(results), humanize.Comma(tot.Records), humanize.Comma(tot.Fields), humanize.Bytes(uint64(tot.Bytes)))
}

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "有效配置:\n%s\n", b)
	return err
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "marcstream.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	return writeDotEnv(filepath.Join(dir, ".env"))
}

// writeConfig 写出配置；path 为 "-" 时写 stdout；不覆盖已存在文件。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var dotEnvKeys = []string{
	"CONFIG_FILE", "INPUTS", "CONCURRENCY", "DIALECT", "LOG_LEVEL",
	"COMPONENTS_READER", "COMPONENTS_WRITER",
	"OPTIONS_READER_JSON", "OPTIONS_DECODER_JSON", "OPTIONS_WRITER_JSON",
}

// writeDotEnv 生成 .env 模板（已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# marcstream .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件 > 默认值；空值表示未设置。\n\n")
	for _, k := range dotEnvKeys {
		b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// loadDotEnv 读取简单的 .env 并注入进程环境：跳过空行与 # 注释，
// 支持 "export " 前缀与成对引号；不覆盖已存在的环境变量。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if _, exists := os.LookupEnv(key); exists || val == "" {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	q := v[0]
	if (q != '\'' && q != '"') || v[len(v)-1] != q {
		return v
	}
	v = v[1 : len(v)-1]
	if q == '"' {
		v = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`).Replace(v)
	}
	return v
}

// preflightOutputDir: fs writer 启动前确认输出目录可创建且可写。
func preflightOutputDir(cfg cfgpkg.Config) error {
	if name := cfg.Components.Writer; name != "" && name != "fs" {
		return nil
	}
	var wopts struct {
		OutputDir string `json:"output_dir"`
	}
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
	}
	dir := strings.TrimSpace(wopts.OutputDir)
	if dir == "" {
		// 由装配阶段报错
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".wcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
