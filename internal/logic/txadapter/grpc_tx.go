package txadapter

import (
	"strconv"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/types"
)

// AdaptUpdate 从 gRPC 推送中取出交易视图。
// 非交易推送、缺少 transaction/message 时返回 false，属于正常情况，不记日志。
// 返回值只引用 update 内的字节，不做修改也不做拷贝。
func AdaptUpdate(update *pb.SubscribeUpdate) (*core.AdaptedTx, bool) {
	txUpdate := update.GetTransaction()
	if txUpdate == nil {
		return nil, false
	}
	info := txUpdate.GetTransaction()
	msg := info.GetTransaction().GetMessage()
	if msg == nil {
		return nil, false
	}

	meta := info.GetMeta()
	return &core.AdaptedTx{
		Signature: signatureOf(info),
		Slot:      strconv.FormatUint(txUpdate.GetSlot(), 10),
		Message: core.Message{
			AccountKeys:  buildFullAccountKeys(msg.GetAccountKeys(), meta.GetLoadedWritableAddresses(), meta.GetLoadedReadonlyAddresses()),
			Instructions: adaptInstructions(msg.GetInstructions()),
			Inner:        adaptInnerInstructions(meta.GetInnerInstructions()),
		},
	}, true
}

// signatureOf 优先使用推送携带的 signature，缺失时回退到 signatures[0]
func signatureOf(info *pb.SubscribeUpdateTransactionInfo) string {
	if sig := info.GetSignature(); len(sig) > 0 {
		return types.EncodeSignature(sig)
	}
	if sigs := info.GetTransaction().GetSignatures(); len(sigs) > 0 {
		return types.EncodeSignature(sigs[0])
	}
	return ""
}

// buildFullAccountKeys 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址。
// 一次性预分配，新切片不与上游共享底层数组。
func buildFullAccountKeys(accountKeys, loadedWritable, loadedReadonly [][]byte) [][]byte {
	if len(loadedWritable) == 0 && len(loadedReadonly) == 0 {
		return accountKeys
	}
	keys := make([][]byte, 0, len(accountKeys)+len(loadedWritable)+len(loadedReadonly))
	keys = append(keys, accountKeys...)
	keys = append(keys, loadedWritable...)
	return append(keys, loadedReadonly...)
}

func adaptInstructions(ixs []*pb.CompiledInstruction) []core.Instruction {
	out := make([]core.Instruction, 0, len(ixs))
	for _, ix := range ixs {
		out = append(out, core.Instruction{
			ProgramIndex:   ix.GetProgramIdIndex(),
			AccountIndexes: ix.GetAccounts(),
			Data:           ix.GetData(),
		})
	}
	return out
}

func adaptInnerInstructions(groups []*pb.InnerInstructions) []core.InnerGroup {
	if len(groups) == 0 {
		return nil
	}
	out := make([]core.InnerGroup, 0, len(groups))
	for _, g := range groups {
		inner := make([]core.Instruction, 0, len(g.GetInstructions()))
		for _, ix := range g.GetInstructions() {
			inner = append(inner, core.Instruction{
				ProgramIndex:   ix.GetProgramIdIndex(),
				AccountIndexes: ix.GetAccounts(),
				Data:           ix.GetData(),
			})
		}
		out = append(out, core.InnerGroup{Index: g.GetIndex(), Instructions: inner})
	}
	return out
}
