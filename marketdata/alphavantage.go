package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/finassist/finassist/llm"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageConfig Alpha Vantage 客户端配置
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RatePerMinute 客户端限速,免费层为 5 次/分钟
	RatePerMinute int
}

// AlphaVantage TIME_SERIES_DAILY_ADJUSTED 客户端。未配置密钥时
// DailySeries 直接返回 (nil, nil),调用方回退到合成序列。
type AlphaVantage struct {
	config  AlphaVantageConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewAlphaVantage 创建客户端
func NewAlphaVantage(config AlphaVantageConfig, logger *zap.Logger) *AlphaVantage {
	if config.BaseURL == "" {
		config.BaseURL = alphaVantageBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RatePerMinute <= 0 {
		config.RatePerMinute = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AlphaVantage{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(config.RatePerMinute)/60.0), 1),
		logger:  logger.With(zap.String("component", "alphavantage")),
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

// dailyResponse TIME_SERIES_DAILY_ADJUSTED 响应体
type dailyResponse struct {
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	Note       string                       `json:"Note"`
	Error      string                       `json:"Error Message"`
}

// DailySeries 拉取日线并按日期升序返回。响应中没有时间序列
// (限流提示、未知代码、空数据)时返回 (nil, nil)。
func (a *AlphaVantage) DailySeries(ctx context.Context, symbol string) ([]Point, error) {
	if a.config.APIKey == "" {
		return nil, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", symbol)
	q.Set("apikey", a.config.APIKey)
	q.Set("outputsize", "compact")

	endpoint := a.config.BaseURL + "/query?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("alphavantage request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.MapHTTPError(resp.StatusCode, string(body), "alphavantage")
	}

	var parsed dailyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.TimeSeries) == 0 {
		if parsed.Note != "" {
			a.logger.Warn("alphavantage throttled", zap.String("note", parsed.Note))
		}
		return nil, nil
	}

	points := make([]Point, 0, len(parsed.TimeSeries))
	for dateStr, vals := range parsed.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		// 优先复权收盘价
		closeStr, ok := vals["5. adjusted close"]
		if !ok || closeStr == "" {
			closeStr = vals["4. close"]
		}
		if closeStr == "" {
			continue
		}
		closeVal, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: date, Close: closeVal})
	}

	if len(points) == 0 {
		return nil, nil
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

var _ Provider = (*AlphaVantage)(nil)
