package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.requestsTotal)
	assert.NotNil(t, collector.requestDuration)
	assert.NotNil(t, collector.retrievalDuration)
	assert.NotNil(t, collector.agentExecutionsTotal)
	assert.NotNil(t, collector.upstreamFailures)
	assert.NotNil(t, collector.syntheticFallbacks)
}

func TestCollector_RecordRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRequest("market", "ok", 120*time.Millisecond)
	collector.RecordRequest("finance_qa", "ok", 800*time.Millisecond)
	collector.RecordRequest("finance_qa", "error", 50*time.Millisecond)

	count := testutil.CollectAndCount(collector.requestsTotal)
	assert.Equal(t, 3, count)
}

func TestCollector_RecordAgentExecution(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordAgentExecution("market", "ok", 90*time.Millisecond)
	collector.RecordAgentExecution("market", "ok", 70*time.Millisecond)

	value := testutil.ToFloat64(collector.agentExecutionsTotal.WithLabelValues("market", "ok"))
	assert.Equal(t, 2.0, value)
}

func TestCollector_RecordUpstreamFailure(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordUpstreamFailure("openai", "RATE_LIMITED")

	value := testutil.ToFloat64(collector.upstreamFailures.WithLabelValues("openai", "RATE_LIMITED"))
	assert.Equal(t, 1.0, value)
}

func TestCollector_RecordSyntheticFallback(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordSyntheticFallback()
	collector.RecordSyntheticFallback()

	value := testutil.ToFloat64(collector.syntheticFallbacks)
	assert.Equal(t, 2.0, value)
}

func TestCollector_RecordCacheHitMiss(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCacheHit("market")
	collector.RecordCacheMiss("market")
	collector.RecordCacheMiss("market")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.cacheHits.WithLabelValues("market")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.cacheMisses.WithLabelValues("market")))
}
