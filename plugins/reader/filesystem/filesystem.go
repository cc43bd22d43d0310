package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"marcstream/pkg/contract"
)

const defaultBuf = 64 * 1024

// Options 为文件系统 Reader 配置。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames: 扫描目录时跳过的目录名（基名，大小写不敏感），例如 [".git"]。
	// 仅影响目录递归，不影响单文件 root。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// IncludeExts: 目录扫描时只处理这些扩展名（含点，大小写不敏感；压缩后缀先剥离）。
	// 为空表示不限制。单文件 root 不受影响。
	IncludeExts []string `json:"include_exts"`
	// NoDecompress: 关闭按扩展名（.gz/.zst/.lz4）的透明解压。
	NoDecompress bool `json:"no_decompress"`
}

// FileSystem 实现基于文件系统与 STDIN 的 Reader。
type FileSystem struct {
	bufSize    int
	excludeDir map[string]struct{}
	include    map[string]struct{}
	decompress bool
}

// New 创建文件系统 Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{bufSize: defaultBuf, excludeDir: map[string]struct{}{}, decompress: true}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	for _, name := range opts.ExcludeDirNames {
		if name != "" {
			r.excludeDir[strings.ToLower(name)] = struct{}{}
		}
	}
	if len(opts.IncludeExts) > 0 {
		r.include = make(map[string]struct{}, len(opts.IncludeExts))
		for _, e := range opts.IncludeExts {
			if e != "" {
				r.include[strings.ToLower(e)] = struct{}{}
			}
		}
	}
	r.decompress = !opts.NoDecompress
	return r
}

// Iterate 遍历 roots，按稳定顺序对每个常规文件调用 yield。
// roots 为空或仅为 "-" 时读取 STDIN；"-" 不能与其他 root 混用。
// yield 负责关闭 rc；yield 出错时由本函数关闭。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(contract.FileID("stdin"), newBufferedCloser(os.Stdin, r.bufSize))
	}
	for _, s := range roots {
		if s == "-" {
			return errors.Wrap(contract.ErrInvalidInput, "stdin '-' cannot be mixed with other roots")
		}
	}
	for _, root := range roots {
		if err := r.iterateOne(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateOne(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	// 符号链接仅跟随到常规文件
	if info.Mode()&os.ModeSymlink != 0 {
		t, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !t.Mode().IsRegular() {
			return nil
		}
		return r.emit(root, yield)
	}
	if info.IsDir() {
		return r.walkDir(ctx, root, yield)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return r.emit(root, yield)
}

func (r *FileSystem) walkDir(ctx context.Context, dir string, yield func(contract.FileID, io.ReadCloser) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	// 先目录
	for _, e := range entries {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}
		if _, skip := r.excludeDir[strings.ToLower(e.Name())]; skip {
			continue
		}
		if err := r.walkDir(ctx, filepath.Join(dir, e.Name()), yield); err != nil {
			return err
		}
	}
	// 再文件
	for _, e := range entries {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if e.IsDir() || !r.included(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		t, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !t.Mode().IsRegular() {
			continue
		}
		if err := r.emit(p, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) included(name string) bool {
	if r.include == nil {
		return true
	}
	_, ok := r.include[strings.ToLower(filepath.Ext(stripCompression(name)))]
	return ok
}

// emit 打开文件（按需解压）并交给 yield。
func (r *FileSystem) emit(p string, yield func(contract.FileID, io.ReadCloser) error) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	var rc io.ReadCloser = newBufferedCloser(f, r.bufSize)
	if r.decompress {
		if rc, err = decompressor(p, rc); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "open %s", p)
		}
	}
	if err := yield(contract.NormalizeFileID(p), rc); err != nil {
		_ = rc.Close()
		return err
	}
	return nil
}

// decompressor 按扩展名包装解压流；未知扩展名原样返回。
func decompressor(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case ".zst":
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackCloser{Reader: zr, closers: []io.Closer{closerFunc(func() error { zr.Close(); return nil }), rc}}, nil
	case ".lz4":
		return &stackCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	}
	return rc, nil
}

func stripCompression(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".zst", ".lz4":
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// stackCloser 依次关闭解压器与底层文件，返回首个错误。
type stackCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = defaultBuf
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

var _ contract.Reader = (*FileSystem)(nil)
