package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial 建立到 EVM JSON-RPC 节点的连接，并用 eth_chainId 做连通性探测。
// HTTP 通道上 DialContext 本身不发请求，必须主动探测才能确认节点可达；
// 探测失败视为本次运行的致命错误，由调用方终止批次。
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc endpoint %s: %w", rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("probe rpc endpoint %s: %w", rpcURL, err)
	}
	return client, chainID, nil
}
