package eventparser

import "fmt"

type RoleReason string

const (
	IndexOutOfRange    RoleReason = "IndexOutOfRange"    // 角色位置超出指令账户列表
	KeyIndexOutOfRange RoleReason = "KeyIndexOutOfRange" // 账户位置超出交易账户表
	MalformedKeyTable  RoleReason = "MalformedKeyTable"  // 账户表条目不是 32 字节
	DerivationFailed   RoleReason = "DerivationFailed"   // PDA 派生失败
)

// RoleResolutionError 命中指令的账户角色无法解析
type RoleResolutionError struct {
	Reason   RoleReason
	Role     string
	Position int // 角色在指令账户列表中的位置
	Index    int // 解析出的账户表位置，未解析到时为 -1
	Len      int // 越界时对应列表的长度
	Err      error
}

func (e *RoleResolutionError) Error() string {
	switch e.Reason {
	case IndexOutOfRange:
		return fmt.Sprintf("role %s: %s: position=%d, accounts=%d", e.Role, e.Reason, e.Position, e.Len)
	case KeyIndexOutOfRange:
		return fmt.Sprintf("role %s: %s: index=%d, keys=%d", e.Role, e.Reason, e.Index, e.Len)
	case MalformedKeyTable:
		return fmt.Sprintf("role %s: %s: index=%d, key_len=%d", e.Role, e.Reason, e.Index, e.Len)
	}
	if e.Err != nil {
		return fmt.Sprintf("role %s: %s: %v", e.Role, e.Reason, e.Err)
	}
	return fmt.Sprintf("role %s: %s", e.Role, e.Reason)
}

func (e *RoleResolutionError) Unwrap() error {
	return e.Err
}

type DecodeReason string

const (
	Truncated   DecodeReason = "Truncated"
	UnknownType DecodeReason = "UnknownType"
)

// DecodeError 参数区解码失败
type DecodeError struct {
	Reason DecodeReason
	Field  string
	Offset int    // 读取开始的位置
	Need   uint64 // 需要的字节数
	Have   uint64 // 剩余字节数
}

func (e *DecodeError) Error() string {
	if e.Reason == Truncated {
		return fmt.Sprintf("field %s: %s: offset=%d, need=%d, have=%d", e.Field, e.Reason, e.Offset, e.Need, e.Have)
	}
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}
