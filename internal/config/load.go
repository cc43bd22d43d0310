package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 为环境变量覆盖的前缀。
const EnvPrefix = "MARCSTREAM_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Concurrency: 1,
		Dialect:     "iso2709",
		Logging:     Logging{Level: "info"},
		Components: Components{
			Reader: "fs",
			Writer: "fs",
		},
	}
}

// Load 按扩展名选择解析器：.yaml/.yml 走 YAML，其余按 JSON。
func Load(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path, nil)
	default:
		return LoadJSON(path, nil)
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	b, err := source(path, raw)
	if err != nil {
		return cfg, err
	}
	if err := decodeStrict(bytes.NewReader(b), &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", nameOf(path))
	}
	return cfg, nil
}

// LoadYAML 解析 YAML 配置：先转为 JSON，再以与 LoadJSON 相同的严格度解码，
// 因而 options 子树可原样交给组件工厂。
func LoadYAML(path string, raw []byte) (Config, error) {
	var cfg Config
	b, err := source(path, raw)
	if err != nil {
		return cfg, err
	}
	var tree interface{}
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", nameOf(path))
	}
	if tree == nil {
		return cfg, nil
	}
	js, err := json.Marshal(tree)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: %s is not JSON-compatible", nameOf(path))
	}
	if err := decodeStrict(bytes.NewReader(js), &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", nameOf(path))
	}
	return cfg, nil
}

func source(path string, raw []byte) ([]byte, error) {
	switch {
	case len(raw) > 0:
		return raw, nil
	case path != "":
		return os.ReadFile(path)
	default:
		return nil, errors.New("no config source provided")
	}
}

func decodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func nameOf(path string) string {
	if path == "" {
		return "<inline>"
	}
	return path
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	if over.Concurrency != 0 {
		out.Concurrency = over.Concurrency
	}
	if d := strings.TrimSpace(over.Dialect); d != "" {
		out.Dialect = d
	}
	if lv := strings.TrimSpace(over.Logging.Level); lv != "" {
		out.Logging.Level = lv
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Decoder) > 0 {
		out.Options.Decoder = cloneRaw(over.Options.Decoder)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 前缀 MARCSTREAM_；支持 INPUTS, CONCURRENCY, DIALECT, LOG_LEVEL,
// COMPONENTS_{READER,WRITER}, OPTIONS_{READER,DECODER,WRITER}_JSON。
// 数值非法时返回错误，不静默忽略。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := kv[eq+1:]
		switch key {
		case "INPUTS":
			over.Inputs = splitComma(val)
		case "CONCURRENCY":
			v, err := atoi(val)
			if err != nil {
				return over, errors.Wrapf(err, "env %sCONCURRENCY", EnvPrefix)
			}
			over.Concurrency = v
		case "DIALECT":
			over.Dialect = strings.TrimSpace(val)
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "COMPONENTS_READER":
			over.Components.Reader = strings.TrimSpace(val)
		case "COMPONENTS_WRITER":
			over.Components.Writer = strings.TrimSpace(val)
		case "OPTIONS_READER_JSON":
			over.Options.Reader = rawOrNil(val)
		case "OPTIONS_DECODER_JSON":
			over.Options.Decoder = rawOrNil(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = rawOrNil(val)
		}
	}
	return over, nil
}

// rawOrNil: 空值视为未设置，避免清空文件配置。
func rawOrNil(s string) json.RawMessage {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return json.RawMessage(s)
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func atoi(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) }
