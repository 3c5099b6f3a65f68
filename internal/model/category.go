package model

import (
	"fmt"
	"strings"
)

// Category 项目分类
type Category uint8

const (
	CategoryTechnology Category = iota
	CategoryHardware
	CategoryCreative
	CategoryEducation
	CategorySocialImpact
	CategoryResearch
	CategoryBusiness
	CategoryCommunity
)

var categoryNames = [...]string{
	"Technology",
	"Hardware",
	"Creative",
	"Education",
	"SocialImpact",
	"Research",
	"Business",
	"Community",
}

func (c Category) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Valid 是否为已知分类
func (c Category) Valid() bool {
	return int(c) < len(categoryNames)
}

// ParseCategory 按名称解析分类（大小写不敏感）
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}
