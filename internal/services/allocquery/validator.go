package allocquery

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress 校验地址并返回 EIP-55 规范（校验和）形式。
//
// 规则：
//  1. 必须是 40 位十六进制（可带 0x 前缀）；
//  2. 全小写 / 全大写直接接受并规范化；
//  3. 混合大小写必须与自身的 EIP-55 渲染完全一致，否则按校验和错误拒绝。
//
// 非法输入只返回 ok=false，绝不 panic；调用方把它当作一类结果而非程序错误。
func NormalizeAddress(raw string) (canonical string, ok bool) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return "", false
	}

	canonical = common.HexToAddress(s).Hex()

	hexPart := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return canonical, true
	}
	// 混合大小写视为带校验和输入，必须逐字符一致。
	if hexPart == strings.TrimPrefix(canonical, "0x") {
		return canonical, true
	}
	return "", false
}
