package contract

import (
	"context"
	"io"
)

// ArtifactID: 输出工件标识，与 FileID 同表示。
type ArtifactID = FileID

// Writer: 将规范事件流的编码字节持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 流式写入，按字节透传，不解析内容；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
