package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"uqalloc-query/internal/domain/model"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Loader 负责从磁盘读取并校验链配置文件。
type Loader struct {
	File string
}

// LoadedProfile 是加载后的配置和其文件哈希，用于留痕与版本确认。
type LoadedProfile struct {
	Profile model.ChainProfile
	SHA256  string
	Path    string
}

func NewLoader(file string) *Loader {
	return &Loader{File: file}
}

// Load 读取链配置并执行基础结构校验。
func (l *Loader) Load(ctx context.Context) (*LoadedProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(l.File)
	if err != nil {
		return nil, fmt.Errorf("read chain profile: %w", err)
	}

	var p model.ChainProfile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse chain profile: %w", err)
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	return &LoadedProfile{
		Profile: p,
		SHA256:  hex.EncodeToString(sum[:]),
		Path:    l.File,
	}, nil
}

// validateProfile 检查链配置的完整性。
func validateProfile(p model.ChainProfile) error {
	if strings.TrimSpace(p.Version) == "" {
		return errors.New("chain profile: version is required")
	}
	if strings.TrimSpace(p.Chain.Name) == "" {
		return errors.New("chain profile: chain.name is required")
	}

	rpcURL := strings.TrimSpace(p.Chain.RPCURL)
	if rpcURL == "" {
		return errors.New("chain profile: chain.rpc_url is required")
	}
	if !strings.HasPrefix(rpcURL, "http://") && !strings.HasPrefix(rpcURL, "https://") {
		return fmt.Errorf("chain profile: chain.rpc_url must be http(s): %s", rpcURL)
	}

	addr := strings.TrimSpace(p.Contract.Address)
	if addr == "" {
		return errors.New("chain profile: contract.address is required")
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("chain profile: invalid contract.address: %s", addr)
	}

	return nil
}
