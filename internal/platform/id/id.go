package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New 生成 prefix_<毫秒时间戳>_<随机 hex> 形式的 ID。
// run_xxx / report_xxx / evt_xxx 这类 ID 便于日志阅读，
// 也基本满足本地单机场景下的唯一性。
func New(prefix string) string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf[:]))
}
