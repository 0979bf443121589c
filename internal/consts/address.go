package consts

import "pumpwatch-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	SystemProgramStr = "11111111111111111111111111111111"
	TokenProgramStr  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// Launchpad: PumpFun
	PumpFunProgramStr = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

var (
	TokenProgram   = types.PubkeyFromBase58(TokenProgramStr)
	PumpFunProgram = types.PubkeyFromBase58(PumpFunProgramStr)
)
