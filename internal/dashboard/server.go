package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HieuPC11/Tiki-Phone/internal/analytics"
	"github.com/HieuPC11/Tiki-Phone/internal/config"
	"github.com/HieuPC11/Tiki-Phone/internal/dashboard/middleware"
	"github.com/HieuPC11/Tiki-Phone/internal/model"
	"github.com/HieuPC11/Tiki-Phone/internal/pkg/metrics"
	"github.com/HieuPC11/Tiki-Phone/internal/store"
)

// SnapshotLoader 抽象快照加载，便于测试注入内存数据。
type SnapshotLoader func(path string) ([]model.Product, error)

// Server 封装仪表盘服务的依赖与路由。
//
// 快照在启动时加载一次并只读共享；每个请求都从完整记录集
// 派生自己的筛选子集，服务端不保留任何会话状态。
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	records []model.Product
	router  *gin.Engine
}

// NewServer 初始化仪表盘服务器。
//
// 它负责：
// 1. 加载 CSV 快照（不可读则返回错误，进程应以失败退出）
// 2. 初始化 Prometheus 指标
// 3. 初始化 Gin 路由引擎
//
// 参数:
//
//	cfg: 配置对象
//	logger: 日志记录器
//	load: 快照加载函数（传 nil 使用默认的 store.Load）
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 快照不可读返回错误
func NewServer(cfg *config.Config, logger *slog.Logger, load SnapshotLoader) (*Server, error) {
	if load == nil {
		load = store.Load
	}
	records, err := load(cfg.App.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	logger.Info("snapshot loaded",
		slog.String("path", cfg.App.SnapshotPath),
		slog.Int("records", len(records)))

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		records: records,
		router:  r,
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// registerRoutes 注册所有路由。
func (s *Server) registerRoutes() {
	webDir := s.cfg.Dashboard.WebDir
	s.router.StaticFile("/", filepath.Join(webDir, "index.html"))
	s.router.Static("/assets", filepath.Join(webDir, "assets"))

	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	api := s.router.Group("/api")
	api.GET("/filters", s.handleFilters)
	api.GET("/summary", s.handleSummary)
	api.GET("/charts/:name", s.handleChart)
	api.GET("/top", s.handleTop)
	api.GET("/export", s.handleExport)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "records": len(s.records)})
}

// filterFromQuery 从查询参数构造筛选条件。
// category 单选；subcategory 与 brand 可重复出现（多选）。
func filterFromQuery(c *gin.Context) analytics.Filter {
	return analytics.Filter{
		Category:      c.Query("category"),
		Subcategories: c.QueryArray("subcategory"),
		Brands:        c.QueryArray("brand"),
	}
}

func (s *Server) subset(c *gin.Context) []model.Product {
	return analytics.Apply(s.records, filterFromQuery(c))
}

func (s *Server) handleFilters(c *gin.Context) {
	metrics.DashboardQueriesTotal.WithLabelValues("filters").Inc()
	opts := analytics.FilterOptions(s.records, filterFromQuery(c))
	c.JSON(http.StatusOK, opts)
}

func (s *Server) handleSummary(c *gin.Context) {
	metrics.DashboardQueriesTotal.WithLabelValues("summary").Inc()
	summary := analytics.Summarize(s.subset(c))
	c.JSON(http.StatusOK, summary)
}

// handleChart 返回指定图表的数据序列。
// 空子集得到空序列，对前端来说是合法的"无数据"状态而非错误。
func (s *Server) handleChart(c *gin.Context) {
	name := c.Param("name")
	metrics.DashboardQueriesTotal.WithLabelValues("chart_" + name).Inc()
	subset := s.subset(c)

	switch name {
	case "subcategories":
		c.JSON(http.StatusOK, gin.H{"items": analytics.CountBySubcategory(subset, 15)})
	case "ratings":
		c.JSON(http.StatusOK, gin.H{"buckets": analytics.RatingHistogram(subset, 20)})
	case "prices":
		c.JSON(http.StatusOK, gin.H{"buckets": analytics.PriceHistogram(subset, 30)})
	case "brand-revenue":
		c.JSON(http.StatusOK, gin.H{"items": analytics.RevenueByBrand(subset, 10)})
	case "subcategory-revenue":
		c.JSON(http.StatusOK, gin.H{"items": analytics.RevenueBySubcategory(subset, 15)})
	case "price-ranges":
		c.JSON(http.StatusOK, gin.H{"items": analytics.QuantityByPriceRange(subset)})
	case "price-quantity":
		c.JSON(http.StatusOK, gin.H{"points": analytics.PriceQuantityPoints(subset, analytics.ScatterCap)})
	case "discount-quantity":
		c.JSON(http.StatusOK, gin.H{"points": analytics.DiscountQuantityPoints(subset, analytics.ScatterCap)})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart: " + name})
	}
}

func (s *Server) handleTop(c *gin.Context) {
	metrics.DashboardQueriesTotal.WithLabelValues("top").Inc()
	subset := s.subset(c)

	n := 20
	if v := c.Query("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n"})
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		n = parsed
	}

	var ranked []model.Product
	switch c.DefaultQuery("by", "revenue") {
	case "revenue":
		ranked = analytics.TopProductsByRevenue(subset, n)
	case "quantity":
		ranked = analytics.TopProductsByQuantity(subset, n)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "by must be revenue or quantity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ranked})
}

// handleExport 以 CSV 附件返回当前筛选子集。
func (s *Server) handleExport(c *gin.Context) {
	metrics.DashboardQueriesTotal.WithLabelValues("export").Inc()
	data, err := store.EncodeCSV(s.subset(c))
	if err != nil {
		s.logger.Error("encode export failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode csv failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tiki_products_filtered.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
