package integration

import (
	"errors"
	"strings"
)

// 集成层错误类别。服务层与各模块通过 %w 包装这些哨兵，
// 调用方用 errors.Is 区分配置、校验、通信、协议与未找到五类失败。
var (
	ErrConfiguration = errors.New("integration configuration error")
	ErrValidation    = errors.New("integration validation error")
	ErrCommunication = errors.New("integration communication error")
	ErrProtocol      = errors.New("integration protocol error")
	ErrNotFound      = errors.New("integration record not found")
)

// FieldsError 聚合缺失或非法字段的错误（不在首个字段处短路）
type FieldsError struct {
	Err     error
	Message string
	Fields  []string
}

// NewFieldsError 创建字段聚合错误
func NewFieldsError(kind error, message string, fields []string) *FieldsError {
	return &FieldsError{
		Err:     kind,
		Message: message,
		Fields:  fields,
	}
}

func (e *FieldsError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Fields) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(e.Fields, ", ")
}

func (e *FieldsError) Unwrap() error {
	return e.Err
}
