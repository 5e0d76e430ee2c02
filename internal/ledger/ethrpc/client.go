// Package ethrpc counts wallet transactions directly against an EVM JSON-RPC
// node instead of a hosted explorer.
package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"CyberGuard/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// nonceReader is the subset of ethclient.Client used by Client.
type nonceReader interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// Client reports the account nonce at the latest block, which equals the
// number of transactions sent from the address.
type Client struct {
	mu  sync.Mutex
	eth *ethclient.Client
	rdr nonceReader
}

// Dial connects to the node at rpcURL.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}
	return &Client{eth: eth, rdr: eth}, nil
}

// TransactionCount implements ledger.Counter. Addresses that are not 20-byte
// hex strings are rejected before any RPC is made.
func (c *Client) TransactionCount(ctx context.Context, address string) (int, error) {
	if c == nil {
		return 0, errors.New("未初始化的以太坊客户端")
	}
	c.mu.Lock()
	rdr := c.rdr
	c.mu.Unlock()
	if rdr == nil {
		return 0, errors.New("以太坊客户端已关闭")
	}
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("无效的以太坊地址: %s", address)
	}
	nonce, err := rdr.NonceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("查询交易计数失败: %w", err)
	}
	return int(nonce), nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
	c.rdr = nil
}

var _ ledger.Counter = (*Client)(nil)
