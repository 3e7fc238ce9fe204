package analytics

import (
	"sort"

	"github.com/HieuPC11/Tiki-Phone/internal/model"
)

// Summary 子集上的标量汇总。
//
// 空子集返回全零值而不是错误；Count 为 0 即表示"无数据"，
// 此时均值字段无意义（保持为 0，前端渲染为占位符）。
type Summary struct {
	Count         int     `json:"count"`          // 记录数
	TotalQuantity int64   `json:"total_quantity"` // 销量合计
	TotalRevenue  float64 `json:"total_revenue"`  // 预估营收合计 (价格 × 销量)
	MeanPrice     float64 `json:"mean_price"`     // 平均售价
	MeanRating    float64 `json:"mean_rating"`    // 平均评分
}

// Summarize 计算子集的汇总统计。
func Summarize(subset []model.Product) Summary {
	s := Summary{Count: len(subset)}
	if len(subset) == 0 {
		return s
	}

	var priceSum, ratingSum float64
	for _, r := range subset {
		s.TotalQuantity += r.QuantitySold
		s.TotalRevenue += r.EstimatedRevenue()
		priceSum += r.Price
		ratingSum += r.RatingAverage
	}
	s.MeanPrice = priceSum / float64(len(subset))
	s.MeanRating = ratingSum / float64(len(subset))
	return s
}

// TopProductsByRevenue 按预估营收降序返回前 n 条记录。
func TopProductsByRevenue(subset []model.Product, n int) []model.Product {
	return topBy(subset, n, func(a, b model.Product) bool {
		return a.EstimatedRevenue() > b.EstimatedRevenue()
	})
}

// TopProductsByQuantity 按销量降序返回前 n 条记录。
func TopProductsByQuantity(subset []model.Product, n int) []model.Product {
	return topBy(subset, n, func(a, b model.Product) bool {
		return a.QuantitySold > b.QuantitySold
	})
}

func topBy(subset []model.Product, n int, less func(a, b model.Product) bool) []model.Product {
	ranked := make([]model.Product, len(subset))
	copy(ranked, subset)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
