// Package filesystem 将编码后的规范事件流落盘为 <output_dir>/<file><ext>，可选压缩与原子替换。
package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"marcstream/pkg/contract"
)

// DefaultExt 为输出文件缺省后缀。
const DefaultExt = ".iso"

// Options 为文件系统 Writer 配置。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `json:"output_dir"`
	// Ext: 追加到输出文件名的后缀；缺省 ".iso"，显式 "-" 表示不追加。
	Ext string `json:"ext,omitempty"`
	// Compress: "" | "gzip" | "zstd"；启用时额外追加 .gz / .zst。
	Compress string `json:"compress,omitempty"`
	// Atomic: 同目录临时文件 + rename；缺省 true。
	Atomic *bool `json:"atomic,omitempty"`
	// Flat: 仅保留文件名，不保留目录层级；缺省 true。
	Flat *bool `json:"flat,omitempty"`
	// PermFile/PermDir: 为 0 时使用 0644 / 0755。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用 64KiB。
	BufSize int `json:"buf_size,omitempty"`
}

type FS struct {
	root     string
	ext      string
	compress string
	atomic   bool
	flat     bool
	permF    os.FileMode
	permD    os.FileMode
	bufSize  int
}

// New 创建文件系统 Writer。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.Wrap(contract.ErrInvalidInput, "writer: output_dir required")
	}
	w := &FS{
		root:     opts.OutputDir,
		ext:      DefaultExt,
		compress: opts.Compress,
		atomic:   true,
		flat:     true,
		permF:    0o644,
		permD:    0o755,
		bufSize:  64 * 1024,
	}
	switch opts.Ext {
	case "":
	case "-":
		w.ext = ""
	default:
		w.ext = opts.Ext
	}
	switch opts.Compress {
	case "":
	case "gzip":
		w.ext += ".gz"
	case "zstd":
		w.ext += ".zst"
	default:
		return nil, errors.Wrapf(contract.ErrInvalidInput, "writer: unknown compress %q", opts.Compress)
	}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	if opts.Flat != nil {
		w.flat = *opts.Flat
	}
	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}
	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}
	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}
	return w, nil
}

var _ contract.Writer = (*FS)(nil)

// Write 将 r 的全部字节写入 id 映射的目标路径。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.mapPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}
	if w.atomic {
		return w.writeAtomic(ctx, dest, r)
	}
	return w.writeOverwrite(ctx, dest, r)
}

// Path 返回 id 对应的输出路径（不创建文件）。
func (w *FS) Path(id contract.ArtifactID) (string, error) { return w.mapPath(id) }

// mapPath: Clean + Join + 越界校验，最后追加后缀。
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(string(id))
	if w.flat {
		rel = filepath.Base(rel)
		if rel == "." || rel == ".." || rel == "" || rel == string(filepath.Separator) {
			return "", contract.ErrPathInvalid
		}
		return filepath.Join(w.root, rel+w.ext), nil
	}
	if rel == "." || rel == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel+w.ext), nil
}

// copyTo 将 r 经可选压缩与缓冲写入 f。
func (w *FS) copyTo(ctx context.Context, f io.Writer, r io.Reader) error {
	bw := bufio.NewWriterSize(f, w.bufSize)
	var dst io.Writer = bw
	var zc io.Closer
	switch w.compress {
	case "gzip":
		zw := gzip.NewWriter(bw)
		dst, zc = zw, zw
	case "zstd":
		zw, err := zstd.NewWriter(bw)
		if err != nil {
			return err
		}
		dst, zc = zw, zw
	}
	if _, err := io.Copy(dst, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	if zc != nil {
		if err := zc.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	if err := w.copyTo(ctx, f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := w.copyTo(ctx, tmp, r); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：同步父目录元数据
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 每次 Read 前检查 ctx。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
