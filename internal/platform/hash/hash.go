package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// Text 对各字段去除首尾空白后按换行拼接，再计算 SHA-256。
// 用于 query_results.record_hash / audit_logs.chain_hash 等字段级留痕。
func Text(parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
	}
	sum := sha256.Sum256([]byte(strings.Join(trimmed, "\n")))
	return hex.EncodeToString(sum[:])
}

// File 计算文件内容的 SHA-256 并返回文件大小。
// 用于报告产物（CSV/PDF/ZIP）的完整性登记与复核。
func File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return Reader(f)
}

// Reader 对任意数据流计算 SHA-256 与字节数。
func Reader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
