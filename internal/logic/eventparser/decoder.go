package eventparser

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

// cursor 只向前移动；每次读取前先检查剩余长度
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() uint64 {
	return uint64(len(c.buf) - c.off)
}

func (c *cursor) take(n uint64, field string) ([]byte, error) {
	have := c.remaining()
	if n > have {
		return nil, &DecodeError{Reason: Truncated, Field: field, Offset: c.off, Need: n, Have: have}
	}
	b := c.buf[c.off : c.off+int(n)]
	c.off += int(n)
	return b, nil
}

func (c *cursor) u32(field string) (uint32, error) {
	b, err := c.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeArgs 按 args 顺序解码指令参数区（小端序，跳过前 8 字节方法 ID）。
// 声明字段之后的多余字节忽略。
func DecodeArgs(data []byte, args []protocol.Arg) (core.Fields, error) {
	c := &cursor{buf: data}
	if _, err := c.take(consts.DiscriminatorSize, "discriminator"); err != nil {
		return nil, err
	}

	return c.fields(args)
}

func (c *cursor) fields(args []protocol.Arg) (core.Fields, error) {
	out := make(core.Fields, 0, len(args))
	for _, a := range args {
		v, err := c.read(a)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Field{Name: a.Name, Value: v})
	}
	return out, nil
}

func (c *cursor) read(a protocol.Arg) (string, error) {
	switch a.Type {
	case protocol.ArgString:
		l, err := c.u32(a.Name)
		if err != nil {
			return "", err
		}
		b, err := c.take(uint64(l), a.Name)
		if err != nil {
			return "", err
		}
		// 非法 UTF-8 替换为 U+FFFD，不视为错误
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil

	case protocol.ArgPubkey:
		b, err := c.take(types.PubkeySize, a.Name)
		if err != nil {
			return "", err
		}
		return base58.Encode(b), nil

	case protocol.ArgU8:
		b, err := c.take(1, a.Name)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(uint64(b[0]), 10), nil

	case protocol.ArgU64:
		b, err := c.take(8, a.Name)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(binary.LittleEndian.Uint64(b), 10), nil

	case protocol.ArgBool:
		b, err := c.take(1, a.Name)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b[0] != 0), nil
	}
	return "", &DecodeError{Reason: UnknownType, Field: a.Name, Offset: c.off}
}
