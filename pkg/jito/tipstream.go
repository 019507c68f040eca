package jito

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"swapengine/pkg"
)

const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
	solLamports           = 1_000_000_000
)

// TipPercentiles is one snapshot of the relay's landed-tip distribution,
// in lamports.
type TipPercentiles struct {
	P25        uint64
	P50        uint64
	P75        uint64
	P95        uint64
	P99        uint64
	EMA50      uint64
	ReceivedAt time.Time
}

// tipStreamMessage is the wire shape: tip values arrive as SOL floats.
type tipStreamMessage struct {
	LandedTips25thPercentile    float64 `json:"landed_tips_25th_percentile"`
	LandedTips50thPercentile    float64 `json:"landed_tips_50th_percentile"`
	LandedTips75thPercentile    float64 `json:"landed_tips_75th_percentile"`
	LandedTips95thPercentile    float64 `json:"landed_tips_95th_percentile"`
	LandedTips99thPercentile    float64 `json:"landed_tips_99th_percentile"`
	EMALandedTips50thPercentile float64 `json:"ema_landed_tips_50th_percentile"`
}

// TipMonitor keeps the latest percentile snapshot from the relay's tip
// stream. Reads never block on the connection: CurrentTip serves the last
// snapshot, or pkg.ErrTipUnavailable before the first message lands.
type TipMonitor struct {
	url      string
	logger   *zap.Logger
	snapshot atomic.Pointer[TipPercentiles]
}

func NewTipMonitor(url string, logger *zap.Logger) *TipMonitor {
	return &TipMonitor{url: url, logger: logger}
}

// Run consumes the stream until ctx is cancelled, reconnecting with
// capped exponential backoff. Stream failure never fails a swap, only
// the tip fallback path.
func (m *TipMonitor) Run(ctx context.Context) {
	delay := initialReconnectDelay
	for {
		if err := m.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("tip stream disconnected",
				zap.Error(err),
				zap.Duration("retry_in", delay))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (m *TipMonitor) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial tip stream: %w", err)
	}
	defer conn.Close()
	m.logger.Info("tip stream connected", zap.String("url", m.url))

	// The watcher must not outlive this connection: a long-running
	// monitor reconnects many times.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read tip stream: %w", err)
		}
		m.handleMessage(message)
	}
}

func (m *TipMonitor) handleMessage(message []byte) {
	// Messages arrive as a single-element array.
	var batch []tipStreamMessage
	if err := json.Unmarshal(message, &batch); err != nil || len(batch) == 0 {
		m.logger.Debug("skipping malformed tip stream message", zap.Error(err))
		return
	}
	tips := batch[len(batch)-1]

	m.snapshot.Store(&TipPercentiles{
		P25:        solToLamports(tips.LandedTips25thPercentile),
		P50:        solToLamports(tips.LandedTips50thPercentile),
		P75:        solToLamports(tips.LandedTips75thPercentile),
		P95:        solToLamports(tips.LandedTips95thPercentile),
		P99:        solToLamports(tips.LandedTips99thPercentile),
		EMA50:      solToLamports(tips.EMALandedTips50thPercentile),
		ReceivedAt: time.Now(),
	})
}

// Current returns the latest snapshot, or pkg.ErrTipUnavailable if no
// message has arrived yet.
func (m *TipMonitor) Current() (*TipPercentiles, error) {
	snapshot := m.snapshot.Load()
	if snapshot == nil {
		return nil, pkg.ErrTipUnavailable
	}
	return snapshot, nil
}

// CurrentTip returns the lamport tip at the requested percentile.
// Supported percentiles are 25, 50, 75, 95 and 99; anything else falls
// back to the median.
func (m *TipMonitor) CurrentTip(percentile int) (uint64, error) {
	snapshot, err := m.Current()
	if err != nil {
		return 0, err
	}
	switch percentile {
	case 25:
		return snapshot.P25, nil
	case 50:
		return snapshot.P50, nil
	case 75:
		return snapshot.P75, nil
	case 95:
		return snapshot.P95, nil
	case 99:
		return snapshot.P99, nil
	default:
		return snapshot.P50, nil
	}
}

func solToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(math.Round(sol * solLamports))
}
