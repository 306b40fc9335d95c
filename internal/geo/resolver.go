// Package geo 通过 ip-api.com 尽力解析客户端地址的大致位置.
package geo

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultBaseURL ip-api.com 免费接口, 无需 API key
const DefaultBaseURL = "http://ip-api.com/json"

const lookupFields = "status,message,lat,lon,city,regionName,country"

// Place 查询成功时返回的位置信息, 原样保留服务端数据
type Place struct {
	Lat     float64
	Lon     float64
	City    string
	Region  string
	Country string
}

// Result 要么携带 Place, 要么表示未解析
type Result struct {
	place    Place
	resolved bool
}

// Resolved 包装一个成功的查询结果
func Resolved(p Place) Result {
	return Result{place: p, resolved: true}
}

// Unresolved 表示查询失败或未查询
func Unresolved() Result {
	return Result{}
}

// Place 返回位置信息; 第二个返回值为 false 时位置不可用
func (r Result) Place() (Place, bool) {
	return r.place, r.resolved
}

// OK 是否解析成功
func (r Result) OK() bool {
	return r.resolved
}

// ipAPIResponse ip-api.com 返回的 JSON
type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
}

// Resolver 单次查询, 不重试, 不缓存
type Resolver struct {
	client  *http.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// NewResolver 创建解析器, timeout 为整个请求的上限
func NewResolver(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("geo"),
	}
}

// Resolve 查询 address 的位置. 任何错误、超时或 status 不为 success 都返回 Unresolved.
// 本地/内网地址和无法解析的地址不会发起请求.
func (r *Resolver) Resolve(ctx context.Context, address string) Result {
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		r.logger.Debugf("跳过无效地址: %q", address)
		return Unresolved()
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return Unresolved()
	}

	resp, err := r.query(ctx, ip.String())
	if err != nil {
		r.logger.Debugf("地理位置查询失败 %s: %v", ip, err)
		return Unresolved()
	}

	return Resolved(Place{
		Lat:     resp.Lat,
		Lon:     resp.Lon,
		City:    resp.City,
		Region:  resp.RegionName,
		Country: resp.Country,
	})
}

func (r *Resolver) query(ctx context.Context, ip string) (*ipAPIResponse, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", r.baseURL, url.PathEscape(ip), lookupFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 ip-api.com 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com 返回状态码 %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("查询失败: %s", result.Message)
	}
	return &result, nil
}
