package contract

import "errors"

// 最小错误分类（用于上层策略判定与日志归类）。
var (
	// ErrInvalidInput: 构造期参数非法（例如空分隔模式、越界的标签数值）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 输出标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrUnknownDialect: 方言未注册。
	ErrUnknownDialect = errors.New("unknown dialect")
)
