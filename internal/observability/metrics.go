package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	gatewayCalls   *CounterVec
	gatewayLatency *HistogramVec
	llmRequests    *CounterVec
	llmLatency     *HistogramVec
	llmTokens      *CounterVec
	callLogDropped *Counter

	engineOps       *CounterVec
	engineLatency   *HistogramVec
	engineConflicts *CounterVec
	txRetries       *CounterVec

	insightsGenerated *CounterVec
	insightsServed    *Counter
	insightsCompleted *Counter
	answers           *CounterVec
	reviews           *CounterVec
	catalogCache      *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once. Disabled metrics return nil; every method on a nil
// *Metrics is a no-op.
func Init(log *logger.Logger, enabled bool, scrapeInterval time.Duration) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(scrapeInterval)
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New returns a standalone registry. Tests use it to avoid the process singleton.
func New(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("ip_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("ip_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("ip_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("ip_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("ip_api_requests_error_total", "Total API requests answered with 5xx."),

		gatewayCalls:   NewCounterVec("ip_ai_gateway_calls_total", "AI gateway calls by call type and outcome.", []string{"call", "outcome"}),
		gatewayLatency: NewHistogramVec("ip_ai_gateway_call_duration_seconds", "AI gateway call latency by call type and outcome.", []string{"call", "outcome"}, latency),
		llmRequests:    NewCounterVec("ip_llm_requests_total", "LLM provider requests by model/endpoint/status.", []string{"model", "endpoint", "status"}),
		llmLatency:     NewHistogramVec("ip_llm_request_duration_seconds", "LLM provider latency by model/endpoint/status.", []string{"model", "endpoint", "status"}, latency),
		llmTokens:      NewCounterVec("ip_llm_tokens_total", "LLM tokens by model and direction.", []string{"model", "direction"}),
		callLogDropped: NewCounter("ip_ai_call_log_dropped_total", "AI call log entries dropped because the writer queue was full."),

		engineOps:       NewCounterVec("ip_engine_operations_total", "Progression engine operations by name/status.", []string{"op", "status"}),
		engineLatency:   NewHistogramVec("ip_engine_operation_duration_seconds", "Progression engine operation latency by name/status.", []string{"op", "status"}, latency),
		engineConflicts: NewCounterVec("ip_engine_conflicts_total", "Concurrent-writer conflicts resolved by the engine.", []string{"op"}),
		txRetries:       NewCounterVec("ip_tx_retries_total", "Transactions re-run after a transient storage failure.", []string{"name"}),

		insightsGenerated: NewCounterVec("ip_insights_generated_total", "Insights persisted by source.", []string{"source"}),
		insightsServed:    NewCounter("ip_insights_served_total", "Insights served to learners."),
		insightsCompleted: NewCounter("ip_insights_completed_total", "Insights flipped to completed."),
		answers:           NewCounterVec("ip_answers_total", "Submitted answers by correctness.", []string{"correct"}),
		reviews:           NewCounterVec("ip_reviews_completed_total", "Completed level reviews by outcome.", []string{"outcome"}),
		catalogCache:      NewCounterVec("ip_catalog_cache_total", "Domain catalog cache lookups by result.", []string{"result"}),

		dbStats:   NewGaugeVec("ip_db_pool_stats", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("ip_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("ip_redis_ping_seconds", "Latency of the last redis ping."),

		scrapeInterval: scrapeInterval,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.gatewayCalls, m.gatewayLatency, m.llmRequests, m.llmLatency, m.llmTokens, m.callLogDropped,
		m.engineOps, m.engineLatency, m.engineConflicts, m.txRetries,
		m.insightsGenerated, m.insightsServed, m.insightsCompleted, m.answers, m.reviews, m.catalogCache,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method)
	route = orUnknown(route)
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveGatewayCall records one AI gateway call. outcome is success, fallback, or timeout.
func (m *Metrics) ObserveGatewayCall(call, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	call, outcome = orUnknown(call), orUnknown(outcome)
	m.gatewayCalls.Inc(call, outcome)
	m.gatewayLatency.Observe(dur.Seconds(), call, outcome)
}

func (m *Metrics) GatewayCalls(call, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.gatewayCalls.Value(call, outcome)
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model, endpoint = orUnknown(model), orUnknown(endpoint)
	if status = strings.TrimSpace(status); status == "" {
		status = "0"
	}
	m.llmRequests.Inc(model, endpoint, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, endpoint, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) IncCallLogDropped() {
	if m == nil {
		return
	}
	m.callLogDropped.Inc()
}

func (m *Metrics) ObserveEngineOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op, status = orUnknown(op), orUnknown(status)
	m.engineOps.Inc(op, status)
	m.engineLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncEngineConflict(op string) {
	if m == nil {
		return
	}
	m.engineConflicts.Inc(orUnknown(op))
}

func (m *Metrics) IncTxRetry(name string) {
	if m == nil {
		return
	}
	m.txRetries.Inc(orUnknown(name))
}

// AddInsightsGenerated counts persisted insights; source is "ai" or "fallback".
func (m *Metrics) AddInsightsGenerated(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.insightsGenerated.Add(float64(n), orUnknown(source))
}

func (m *Metrics) IncInsightServed() {
	if m == nil {
		return
	}
	m.insightsServed.Inc()
}

func (m *Metrics) IncInsightCompleted() {
	if m == nil {
		return
	}
	m.insightsCompleted.Inc()
}

func (m *Metrics) IncAnswer(correct bool) {
	if m == nil {
		return
	}
	if correct {
		m.answers.Inc("true")
		return
	}
	m.answers.Inc("false")
}

// IncReviewCompleted counts a finished review; outcome is "advance" or "reinforce".
func (m *Metrics) IncReviewCompleted(outcome string) {
	if m == nil {
		return
	}
	m.reviews.Inc(orUnknown(outcome))
}

func (m *Metrics) IncCatalogCache(result string) {
	if m == nil {
		return
	}
	m.catalogCache.Inc(orUnknown(result))
}

// StartDBCollector samples database/sql pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb on every scrape interval until ctx is done. The client is owned
// by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
