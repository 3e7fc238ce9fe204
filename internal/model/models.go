package model

import (
	"time"
)

// Product 表示一次抓取快照中的单个商品记录。
//
// CSV 列名沿用历史数据集的表头（price(vnd)、discount_rate(%) 等），
// 以保证旧快照文件可以直接加载。记录一旦写入快照即不可变，
// 新的抓取会整体替换快照文件。
type Product struct {
	ID            int64     `csv:"id" json:"id"`                              // 商品在源平台的唯一标识
	Name          string    `csv:"product_name" json:"product_name"`          // 商品名称
	Price         float64   `csv:"price(vnd)" json:"price"`                   // 当前售价 (单位: VND)
	OriginalPrice float64   `csv:"original_price(vnd)" json:"original_price"` // 原价 (单位: VND)
	Discount      float64   `csv:"discount(vnd)" json:"discount"`             // 折扣金额 (单位: VND)
	DiscountRate  float64   `csv:"discount_rate(%)" json:"discount_rate"`     // 折扣率 (百分比)
	ReviewCount   int64     `csv:"review_count" json:"review_count"`          // 评论数
	RatingAverage float64   `csv:"rating_average" json:"rating_average"`      // 平均评分 (0-5)
	QuantitySold  int64     `csv:"quantity_sold" json:"quantity_sold"`        // 销量
	BrandName     string    `csv:"brand_name" json:"brand_name"`              // 品牌名称
	CategoryName  string    `csv:"category_name" json:"category_name"`        // 一级分类名称
	Subcategory   string    `csv:"subcategory_name" json:"subcategory_name"`  // 二级分类名称
	LastUpdated   time.Time `csv:"last_updated" json:"last_updated"`          // 抓取时间
}

// EstimatedRevenue 返回该商品的预估营收（售价 × 销量）。
func (p Product) EstimatedRevenue() float64 {
	return p.Price * float64(p.QuantitySold)
}

// PriceRangeLabels 按从低到高排列的价格区间标签。
var PriceRangeLabels = []string{
	"0-1M", "1-5M", "5-10M", "10-20M", "20-50M", "50-100M", "100M+",
}

var priceRangeBounds = []float64{
	1_000_000, 5_000_000, 10_000_000, 20_000_000, 50_000_000, 100_000_000,
}

// PriceRangeLabel 返回价格所属的区间标签（左闭右开）。
func (p Product) PriceRangeLabel() string {
	for i, upper := range priceRangeBounds {
		if p.Price < upper {
			return PriceRangeLabels[i]
		}
	}
	return PriceRangeLabels[len(PriceRangeLabels)-1]
}
