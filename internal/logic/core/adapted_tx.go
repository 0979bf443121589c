package core

// Instruction 表示 message.instructions 中的一条编译指令，或 innerInstructions 中的一条 CPI 指令。
// AccountIndexes 是账户表中的位置而非地址本身；三者均直接引用上游数据，只读。
type Instruction struct {
	ProgramIndex   uint32 // 程序 ID 在账户表中的位置
	AccountIndexes []byte // 指令涉及的账户位置，保持原始顺序
	Data           []byte // 指令原始数据（前 8 字节为方法 ID）
}

// InnerGroup 某条主指令执行时产生的 inner 指令
type InnerGroup struct {
	Index        uint32 // 所属主指令在 message.instructions 中的序号
	Instructions []Instruction
}

// Message 交易消息的只读视图
type Message struct {
	// AccountKeys 完整账户表：静态账户 + ALT 加载的 writable + ALT 加载的 readonly。
	// 条目未做长度校验，只有被命中的指令引用到时才检查是否为 32 字节。
	AccountKeys [][]byte

	Instructions []Instruction
	Inner        []InnerGroup
}

// InnerOf 返回第 ixIndex 条主指令的 inner 指令，没有时返回 nil
func (m *Message) InnerOf(ixIndex int) []Instruction {
	for i := range m.Inner {
		if int(m.Inner[i].Index) == ixIndex {
			return m.Inner[i].Instructions
		}
	}
	return nil
}

// AdaptedTx 从 StreamUpdate 中提取出的交易，仅在一次分发期间有效，不会被保留
type AdaptedTx struct {
	Signature string // base58
	Slot      string // 十进制
	Message   Message
}
