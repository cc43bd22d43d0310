package contract

// FileID: 逻辑输入标识（通常为规范化路径；STDIN 为 "stdin"）。
type FileID string

// Dialect: 已注册解码方言名（例如 "aleph"、"pica"）。
type Dialect string
