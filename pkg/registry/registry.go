package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"marcstream/pkg/contract"
	daleph "marcstream/plugins/decoder/aleph"
	dbm "marcstream/plugins/decoder/bibliomondo"
	diso "marcstream/plugins/decoder/iso2709"
	dmab "marcstream/plugins/decoder/mab"
	dpica "marcstream/plugins/decoder/pica"
	dsisis "marcstream/plugins/decoder/sisis"
	rfs "marcstream/plugins/reader/filesystem"
	wdis "marcstream/plugins/writer/discard"
	wfs "marcstream/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewDecoder 工厂签名：接收原样 JSON Options。
type NewDecoder func(raw json.RawMessage) (contract.Decoder, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader，按扩展名透明解压
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// decoder 将 "选项类型 + 构造函数" 适配为 NewDecoder。
func decoder[O any, D contract.Decoder](ctor func(*O) D) NewDecoder {
	return func(raw json.RawMessage) (contract.Decoder, error) {
		var opts O
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ctor(&opts), nil
	}
}

// Decoder 方言注册表：名称即配置中的 dialect。
var Decoder = map[string]NewDecoder{
	"iso2709":     decoder(diso.New),
	"aleph":       decoder(daleph.New),
	"bibliomondo": decoder(dbm.New),
	"mab":         decoder(dmab.New),
	"pica":        decoder(dpica.New),
	"picaplain":   decoder(dpica.NewPlain),
	"sisis":       decoder(dsisis.New),
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 规范流落盘（原子替换/压缩可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
	// discard: 不落盘，仅统计
	"discard": func(raw json.RawMessage) (contract.Writer, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wdis.New(), nil
	},
}

// Dialects 返回已注册方言名（字典序）。
func Dialects() []string {
	out := make([]string, 0, len(Decoder))
	for name := range Decoder {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
