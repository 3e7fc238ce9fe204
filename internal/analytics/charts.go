package analytics

import (
	"fmt"
	"sort"

	"github.com/HieuPC11/Tiki-Phone/internal/model"
)

// Bucket 直方图的一个柱。
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// NamedValue 分组求和结果的一项（如某品牌的营收）。
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Point 散点图中的一个点。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScatterCap 散点图最多展示的点数，避免大快照拖垮前端渲染。
const ScatterCap = 500

// CountBySubcategory 统计各二级分类的记录数，按数量降序取前 n。
func CountBySubcategory(subset []model.Product, n int) []NamedValue {
	counts := map[string]float64{}
	for _, r := range subset {
		if r.Subcategory != "" {
			counts[r.Subcategory]++
		}
	}
	return topNamed(counts, n)
}

// RevenueByBrand 按品牌汇总预估营收，降序取前 n。
func RevenueByBrand(subset []model.Product, n int) []NamedValue {
	sums := map[string]float64{}
	for _, r := range subset {
		if r.BrandName != "" {
			sums[r.BrandName] += r.EstimatedRevenue()
		}
	}
	return topNamed(sums, n)
}

// RevenueBySubcategory 按二级分类汇总预估营收，降序取前 n。
func RevenueBySubcategory(subset []model.Product, n int) []NamedValue {
	sums := map[string]float64{}
	for _, r := range subset {
		if r.Subcategory != "" {
			sums[r.Subcategory] += r.EstimatedRevenue()
		}
	}
	return topNamed(sums, n)
}

// QuantityByPriceRange 按固定价格区间汇总销量，区间顺序固定。
func QuantityByPriceRange(subset []model.Product) []NamedValue {
	sums := map[string]float64{}
	for _, r := range subset {
		sums[r.PriceRangeLabel()] += float64(r.QuantitySold)
	}

	out := make([]NamedValue, 0, len(model.PriceRangeLabels))
	for _, label := range model.PriceRangeLabels {
		out = append(out, NamedValue{Name: label, Value: sums[label]})
	}
	return out
}

// RatingHistogram 评分分布（固定 0-5 区间均分为 bins 个桶）。
// 评分为 0 的记录视为未评分，不计入。
func RatingHistogram(subset []model.Product, bins int) []Bucket {
	if bins <= 0 {
		bins = 20
	}
	width := 5.0 / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		lo := float64(i) * width
		buckets[i].Label = fmt.Sprintf("%.2f-%.2f", lo, lo+width)
	}
	for _, r := range subset {
		if r.RatingAverage <= 0 {
			continue
		}
		idx := int(r.RatingAverage / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

// PriceHistogram 价格分布（在正价格的 min-max 区间均分为 bins 个桶）。
// 价格为 0 的记录不计入。
func PriceHistogram(subset []model.Product, bins int) []Bucket {
	if bins <= 0 {
		bins = 30
	}

	var prices []float64
	for _, r := range subset {
		if r.Price > 0 {
			prices = append(prices, r.Price)
		}
	}
	if len(prices) == 0 {
		return []Bucket{}
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi == lo {
		return []Bucket{{Label: formatVND(lo), Count: len(prices)}}
	}

	width := (hi - lo) / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		bLo := lo + float64(i)*width
		buckets[i].Label = formatVND(bLo) + "-" + formatVND(bLo+width)
	}
	for _, p := range prices {
		idx := int((p - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

// PriceQuantityPoints 价格-销量散点（双正值过滤，最多 cap 个点）。
func PriceQuantityPoints(subset []model.Product, cap int) []Point {
	if cap <= 0 {
		cap = ScatterCap
	}
	points := make([]Point, 0, cap)
	for _, r := range subset {
		if r.Price <= 0 || r.QuantitySold <= 0 {
			continue
		}
		points = append(points, Point{X: r.Price, Y: float64(r.QuantitySold)})
		if len(points) >= cap {
			break
		}
	}
	return points
}

// DiscountQuantityPoints 折扣率-销量散点（销量需为正，最多 cap 个点）。
func DiscountQuantityPoints(subset []model.Product, cap int) []Point {
	if cap <= 0 {
		cap = ScatterCap
	}
	points := make([]Point, 0, cap)
	for _, r := range subset {
		if r.QuantitySold <= 0 {
			continue
		}
		points = append(points, Point{X: r.DiscountRate, Y: float64(r.QuantitySold)})
		if len(points) >= cap {
			break
		}
	}
	return points
}

// topNamed 将 map 转为按值降序的前 n 项；值相同按名称升序，保证输出稳定。
func topNamed(m map[string]float64, n int) []NamedValue {
	out := make([]NamedValue, 0, len(m))
	for name, value := range m {
		out = append(out, NamedValue{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// formatVND 将金额压缩为带单位的短标签（1.5M、200K）。
func formatVND(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
