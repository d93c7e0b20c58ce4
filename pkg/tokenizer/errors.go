package tokenizer

import "errors"

var (
	// ErrInvalidConfig 配置无效错误
	ErrInvalidConfig = errors.New("invalid tokenizer config")
)
