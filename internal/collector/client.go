package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HieuPC11/Tiki-Phone/internal/pkg/metrics"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// ErrUnexpectedStatus 表示源站返回了非 200 状态码。
var ErrUnexpectedStatus = errors.New("unexpected http status")

// Client 封装对商品 API 的 HTTP 访问。
//
// 列表端点: GET {base}/api/v2/products?limit={n}&category={id}&page={p}
// 详情端点: GET {base}/api/v2/products/{id}
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	userAgent  string
}

// NewClient 创建 API 客户端。
//
// 参数:
//
//	baseURL: API 基础地址（如 "https://tiki.vn"）
//	pageSize: 每页商品数
//	timeout: 单次请求超时
//
// 返回值:
//
//	*Client: 客户端实例
func NewClient(baseURL string, pageSize int, timeout time.Duration) *Client {
	if pageSize <= 0 {
		pageSize = 40
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

// listingItem 列表端点返回的单个商品。
// quantity_sold 在部分响应中缺失，因此用指针区分"缺失"与"为 0"。
type listingItem struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Price         float64       `json:"price"`
	OriginalPrice float64       `json:"original_price"`
	Discount      float64       `json:"discount"`
	DiscountRate  float64       `json:"discount_rate"`
	RatingAverage float64       `json:"rating_average"`
	ReviewCount   int64         `json:"review_count"`
	BrandName     string        `json:"brand_name"`
	QuantitySold  *quantitySold `json:"quantity_sold"`
}

type quantitySold struct {
	Value int64 `json:"value"`
}

type listingPaging struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

type listingResponse struct {
	Data   []listingItem `json:"data"`
	Paging listingPaging `json:"paging"`
}

// detailResponse 详情端点返回的字段子集，仅用于回填缺失数据。
type detailResponse struct {
	ID                  int64 `json:"id"`
	AllTimeQuantitySold int64 `json:"all_time_quantity_sold"`
}

// ListProducts 拉取某个分类的一页商品列表。
//
// 参数:
//
//	ctx: 上下文
//	categoryID: 分类 ID
//	page: 页码（从 1 开始）
//
// 返回值:
//
//	*listingResponse: 当前页的商品与分页信息
//	error: 网络失败、非 200 状态或 JSON 解析失败
func (c *Client) ListProducts(ctx context.Context, categoryID int64, page int) (*listingResponse, error) {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(c.pageSize))
	values.Set("category", strconv.FormatInt(categoryID, 10))
	values.Set("page", strconv.Itoa(page))

	endpoint := c.baseURL + "/api/v2/products?" + values.Encode()

	var resp listingResponse
	if err := c.getJSON(ctx, "listing", endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProductDetail 拉取单个商品详情，用于回填列表中缺失的销量。
func (c *Client) ProductDetail(ctx context.Context, productID int64) (*detailResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v2/products/%d", c.baseURL, productID)

	var resp detailResponse
	if err := c.getJSON(ctx, "detail", endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	start := time.Now()
	err := c.doGetJSON(ctx, rawURL, out)
	metrics.CollectorRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollectorRequestsTotal.WithLabelValues(endpoint, classifyFetchError(err)).Inc()
		return err
	}
	metrics.CollectorRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func (c *Client) doGetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
