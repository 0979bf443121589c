package eventparser

import (
	"encoding/binary"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

var createDisc = []byte{24, 30, 200, 40, 5, 28, 7, 119}

func pumpCreateKind() *protocol.Kind {
	return protocol.Default().Kinds()[0]
}

func encodeString(s string) []byte {
	out := make([]byte, 4, 4+len(s))
	binary.LittleEndian.PutUint32(out, uint32(len(s)))
	return append(out, s...)
}

func createPayload(name, symbol, uri string, creator types.Pubkey) []byte {
	data := append([]byte{}, createDisc...)
	data = append(data, encodeString(name)...)
	data = append(data, encodeString(symbol)...)
	data = append(data, encodeString(uri)...)
	return append(data, creator[:]...)
}

// keyN 生成可区分的测试地址
func keyN(n byte) []byte {
	k := make([]byte, 32)
	k[0] = n
	k[31] = n
	return k
}

// createMessage 构造一笔包含 pump.fun create 指令的消息：
// 账户表 0..13 对应指令账户 #0..#13，第 13 位即 pump 程序
func createMessage(data []byte) *core.Message {
	keys := make([][]byte, 14)
	for i := range keys {
		keys[i] = keyN(byte(i + 1))
	}
	keys[13] = consts.PumpFunProgram[:]
	idx := make([]byte, 14)
	for i := range idx {
		idx[i] = byte(i)
	}
	return &core.Message{
		AccountKeys:  keys,
		Instructions: []core.Instruction{{ProgramIndex: 13, AccountIndexes: idx, Data: data}},
	}
}
