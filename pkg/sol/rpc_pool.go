package sol

import (
	"context"
	"fmt"
	"sync/atomic"
)

// RPCPool distributes reads across multiple RPC endpoints round-robin.
type RPCPool struct {
	clients []*Client
	index   uint64
}

// NewRPCPool creates a client per endpoint, all sharing the same
// per-endpoint request limit.
func NewRPCPool(ctx context.Context, endpoints []string, reqLimitPerSecond int) (*RPCPool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured")
	}

	pool := &RPCPool{
		clients: make([]*Client, 0, len(endpoints)),
	}
	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, reqLimitPerSecond)
		if err != nil {
			return nil, err
		}
		pool.clients = append(pool.clients, client)
	}
	return pool, nil
}

// GetClient returns the next client in round-robin fashion.
func (p *RPCPool) GetClient() *Client {
	if len(p.clients) == 1 {
		return p.clients[0]
	}
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Size returns the number of clients in the pool.
func (p *RPCPool) Size() int {
	return len(p.clients)
}
