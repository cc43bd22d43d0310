package config

import "encoding/json"

// DefaultTemplateConfig 返回一个可运行的默认配置模板：
// 输入为 STDIN（"-"），规范转储写到 ./out；选项包含全部键，值为中性默认。
func DefaultTemplateConfig() Config {
	d := Defaults()
	cfg := Config{
		Inputs:      []string{"-"},
		Concurrency: d.Concurrency,
		Dialect:     d.Dialect,
		Logging:     Logging{Level: "info"},
		Components:  d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git"],
  "include_exts": [],
  "no_decompress": false
}`)
	// 各方言均接受 buf_size；mab 另有 crlf 与 subfield_delimiter
	cfg.Options.Decoder = json.RawMessage(`{
  "buf_size": 65536
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "ext": ".iso",
  "compress": "",
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
