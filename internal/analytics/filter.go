package analytics

import (
	"sort"

	"github.com/HieuPC11/Tiki-Phone/internal/model"
)

// Filter 描述用户当前的筛选条件。
//
// Category 为空表示全部分类；Subcategories / Brands 为空集合表示不限。
// 各维度之间为 AND 关系，集合内部为成员匹配（多选）。
type Filter struct {
	Category      string
	Subcategories []string
	Brands        []string
}

// Apply 返回满足全部筛选条件的记录子集。
// 输入记录不会被修改，返回的是一个新的切片。
func Apply(records []model.Product, f Filter) []model.Product {
	subcats := toSet(f.Subcategories)
	brands := toSet(f.Brands)

	subset := make([]model.Product, 0, len(records))
	for _, r := range records {
		if f.Category != "" && r.CategoryName != f.Category {
			continue
		}
		if len(subcats) > 0 {
			if _, ok := subcats[r.Subcategory]; !ok {
				continue
			}
		}
		if len(brands) > 0 {
			if _, ok := brands[r.BrandName]; !ok {
				continue
			}
		}
		subset = append(subset, r)
	}
	return subset
}

// Options 当前筛选下可用的选项列表。
//
// Subcategories 与 Brands 是在分类选择收窄后的可选值，
// 对应侧边栏的级联下拉。
type Options struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Brands        []string `json:"brands"`
}

// FilterOptions 计算筛选控件的候选值（去重、排序、忽略空值）。
func FilterOptions(records []model.Product, f Filter) Options {
	categories := map[string]struct{}{}
	for _, r := range records {
		if r.CategoryName != "" {
			categories[r.CategoryName] = struct{}{}
		}
	}

	// 二级分类与品牌的候选值跟随分类选择收窄
	narrowed := Apply(records, Filter{Category: f.Category})
	subcats := map[string]struct{}{}
	brands := map[string]struct{}{}
	for _, r := range narrowed {
		if r.Subcategory != "" {
			subcats[r.Subcategory] = struct{}{}
		}
		if r.BrandName != "" {
			brands[r.BrandName] = struct{}{}
		}
	}

	return Options{
		Categories:    sortedKeys(categories),
		Subcategories: sortedKeys(subcats),
		Brands:        sortedKeys(brands),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
