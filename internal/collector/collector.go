package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/HieuPC11/Tiki-Phone/internal/config"
	"github.com/HieuPC11/Tiki-Phone/internal/model"
	"github.com/HieuPC11/Tiki-Phone/internal/pkg/metrics"
)

// Service 负责按分类翻页采集商品并累积为记录序列。
//
// 采集是单线程顺序执行的：同一时刻只有一个在途请求，
// 相邻请求之间按配置的间隔停顿。
type Service struct {
	client *Client
	cfg    *config.CollectorConfig
	logger *slog.Logger

	stats collectStats
}

// collectStats 采集过程统计。
type collectStats struct {
	PagesFetched   int
	PagesSkipped   int
	RecordsKept    int
	RecordsSkipped int
	DetailBackfill int
}

// NewService 创建采集服务。
//
// 参数:
//
//	cfg: 采集器配置（API 地址、分页参数、分类树）
//	logger: 日志记录器
//
// 返回值:
//
//	*Service: 服务实例
func NewService(cfg *config.CollectorConfig, logger *slog.Logger) *Service {
	return &Service{
		client: NewClient(cfg.APIBaseURL, cfg.PageSize, cfg.HTTPTimeout),
		cfg:    cfg,
		logger: logger,
	}
}

// CollectAll 顺序采集配置中的全部分类，返回完整的记录快照。
//
// 单页失败只丢弃该页的数据，采集继续；
// 只有 ctx 被取消时才提前返回错误。
func (s *Service) CollectAll(ctx context.Context) ([]model.Product, error) {
	var records []model.Product
	start := time.Now()

	for _, cat := range s.cfg.Categories {
		for _, sub := range cat.Subcategories {
			subRecords, err := s.CollectCategory(ctx, cat.Name, sub)
			if err != nil {
				return records, err
			}
			records = append(records, subRecords...)
		}
	}

	metrics.CollectorRecordsCollected.Set(float64(len(records)))
	s.logger.Info("crawl run completed",
		slog.Int("records", len(records)),
		slog.Int("pages_fetched", s.stats.PagesFetched),
		slog.Int("pages_skipped", s.stats.PagesSkipped),
		slog.Int("records_skipped", s.stats.RecordsSkipped),
		slog.Duration("duration", time.Since(start)))
	return records, nil
}

// CollectCategory 翻页采集单个二级分类，直到 API 返回空页或到达末页。
//
// 参数:
//
//	ctx: 上下文
//	categoryName: 一级分类名称（写入记录）
//	sub: 二级分类
//
// 返回值:
//
//	[]model.Product: 该分类下采集到的记录
//	error: 仅在 ctx 取消时返回
func (s *Service) CollectCategory(ctx context.Context, categoryName string, sub config.Subcategory) ([]model.Product, error) {
	var records []model.Product
	lastPage := 0

	for page := 1; page <= s.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		resp, err := s.client.ListProducts(ctx, sub.ID, page)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return records, err
			}
			// 网络或解析失败：丢弃本页，继续下一页
			s.stats.PagesSkipped++
			metrics.CollectorPagesSkipped.Inc()
			s.logger.Warn("listing page skipped",
				slog.Int64("category_id", sub.ID),
				slog.Int("page", page),
				slog.String("error", err.Error()))
			s.pause(ctx)
			continue
		}
		s.stats.PagesFetched++

		if len(resp.Data) == 0 {
			break
		}
		if resp.Paging.LastPage > 0 {
			lastPage = resp.Paging.LastPage
		}

		now := time.Now().UTC().Truncate(time.Second)
		for _, item := range resp.Data {
			record, err := s.buildRecord(ctx, item, categoryName, sub.Name, now)
			if err != nil {
				s.stats.RecordsSkipped++
				metrics.CollectorRecordsSkipped.Inc()
				s.logger.Debug("listing entry skipped",
					slog.Int64("id", item.ID),
					slog.String("error", err.Error()))
				continue
			}
			records = append(records, record)
			s.stats.RecordsKept++
		}

		if lastPage > 0 && page >= lastPage {
			break
		}
		s.pause(ctx)
	}

	s.logger.Info("subcategory collected",
		slog.String("category", categoryName),
		slog.String("subcategory", sub.Name),
		slog.Int("records", len(records)))
	return records, nil
}

// buildRecord 将列表条目转换为商品记录，并在销量缺失时尝试详情回填。
func (s *Service) buildRecord(ctx context.Context, item listingItem, categoryName, subcategoryName string, now time.Time) (model.Product, error) {
	if item.ID == 0 {
		return model.Product{}, errors.New("missing product id")
	}
	if strings.TrimSpace(item.Name) == "" {
		return model.Product{}, errors.New("missing product name")
	}
	if item.Price < 0 {
		return model.Product{}, fmt.Errorf("negative price: %v", item.Price)
	}

	record := model.Product{
		ID:            item.ID,
		Name:          strings.TrimSpace(item.Name),
		Price:         item.Price,
		OriginalPrice: item.OriginalPrice,
		Discount:      item.Discount,
		DiscountRate:  item.DiscountRate,
		ReviewCount:   item.ReviewCount,
		RatingAverage: item.RatingAverage,
		BrandName:     strings.TrimSpace(item.BrandName),
		CategoryName:  categoryName,
		Subcategory:   subcategoryName,
		LastUpdated:   now,
	}

	if item.Discount == 0 && item.OriginalPrice > item.Price {
		record.Discount = item.OriginalPrice - item.Price
	}

	if item.QuantitySold != nil {
		record.QuantitySold = item.QuantitySold.Value
		return record, nil
	}

	// 列表缺少销量时回填一次详情；失败只丢弃回填，不丢弃记录
	detail, err := s.client.ProductDetail(ctx, item.ID)
	if err != nil {
		s.logger.Debug("detail backfill failed",
			slog.Int64("id", item.ID),
			slog.String("error", err.Error()))
		return record, nil
	}
	record.QuantitySold = detail.AllTimeQuantitySold
	s.stats.DetailBackfill++
	return record, nil
}

// pause 在相邻请求之间停顿，ctx 取消时立即返回。
func (s *Service) pause(ctx context.Context) {
	if s.cfg.RequestDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.RequestDelay):
	}
}

// Stats 返回采集统计的快照。
func (s *Service) Stats() collectStats {
	return s.stats
}

// fetchErrorType 请求错误类型。
type fetchErrorType int

const (
	errTypeUnknown fetchErrorType = iota
	errTypeTimeout
	errTypeNetwork
	errTypeHTTPStatus
	errTypeParse
)

// classifyError 统一的错误分类函数。
func classifyError(err error) fetchErrorType {
	if err == nil {
		return errTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errTypeTimeout
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		return errTypeHTTPStatus
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errTypeTimeout
		}
		return errTypeNetwork
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return errTypeTimeout
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") || strings.Contains(msg, "do request") {
		return errTypeNetwork
	}
	if strings.Contains(msg, "decode") || strings.Contains(msg, "parse") {
		return errTypeParse
	}
	return errTypeUnknown
}

// classifyFetchError 返回用于 metrics 的错误类型字符串。
func classifyFetchError(err error) string {
	switch classifyError(err) {
	case errTypeTimeout:
		return "timeout"
	case errTypeNetwork:
		return "network_error"
	case errTypeHTTPStatus:
		return "http_status"
	case errTypeParse:
		return "parse_error"
	default:
		return "unknown"
	}
}
