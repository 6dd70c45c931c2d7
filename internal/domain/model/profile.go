package model

// ChainProfile 描述一次运行的目标链与合约，来自 YAML 配置文件。
// 单配置只允许一个合约与一个只读函数，函数本身由程序固定。
type ChainProfile struct {
	Version  string         `yaml:"version" json:"version"`
	Chain    ChainTarget    `yaml:"chain" json:"chain"`
	Contract ContractTarget `yaml:"contract" json:"contract"`
}

// ChainTarget 指定链名称与 JSON-RPC 端点。
type ChainTarget struct {
	Name   string `yaml:"name" json:"name"`
	RPCURL string `yaml:"rpc_url" json:"rpc_url"`
}

// ContractTarget 指定查询目标合约。
type ContractTarget struct {
	Address string `yaml:"address" json:"address"`
	Symbol  string `yaml:"symbol" json:"symbol"`
}
