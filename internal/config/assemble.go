package config

import (
	"strings"

	"github.com/pkg/errors"

	"marcstream/internal/pipeline"
	"marcstream/pkg/contract"
	"marcstream/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.Wrap(contract.ErrInvalidInput, "config: inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		switch strings.TrimSpace(r) {
		case "":
			return errors.Wrap(contract.ErrInvalidInput, "config: input path cannot be empty")
		case "-":
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.Wrap(contract.ErrInvalidInput, "config: '-' cannot be mixed with other roots")
	}
	if cfg.Concurrency < 1 {
		return errors.Wrap(contract.ErrInvalidInput, "config: concurrency must be >= 1")
	}
	d := Defaults()
	if name := effName(cfg.Dialect, d.Dialect); registry.Decoder[name] == nil {
		return errors.Wrapf(contract.ErrUnknownDialect, "config: dialect %q (known: %s)", name, strings.Join(registry.Dialects(), ", "))
	}
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return errors.Wrapf(contract.ErrInvalidInput, "config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return errors.Wrapf(contract.ErrInvalidInput, "config: writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	dn := effName(cfg.Dialect, d.Dialect)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, errors.Wrapf(err, "config: reader %q options", rn)
	}
	dec, err := registry.Decoder[dn](cfg.Options.Decoder)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, errors.Wrapf(err, "config: decoder %q options", dn)
	}
	w, err := registry.Writer[wn](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, errors.Wrapf(err, "config: writer %q options", wn)
	}

	comp := pipeline.Components{Reader: r, Decoder: dec, Writer: w}
	set := pipeline.Settings{
		Inputs:      cloneStrings(cfg.Inputs),
		Concurrency: cfg.Concurrency,
		Dialect:     dn,
	}
	return comp, set, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
