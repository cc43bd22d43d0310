package contract

import (
	"context"
	"io"
)

// Reader 枚举方言输入（文件、目录或 STDIN），逐个交出原始字节流。
// 同一输入集合的遍历顺序固定；FileID 使用 "/" 分隔。
// 允许透明解压，但不识别方言，也不在内部起 goroutine。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
