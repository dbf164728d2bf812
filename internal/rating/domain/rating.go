// Package domain 包含商品评分与协同过滤推荐器
package domain

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrRatingNotFound 评分不存在
	ErrRatingNotFound = errors.New("rating not found")
	// ErrInvalidScore 分值必须在 1 到 5 之间
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

// Rating 客户对商品的评分，同一客户同一商品唯一，重复评分覆盖
type Rating struct {
	gorm.Model
	CustomerID uint `gorm:"column:customer_id;uniqueIndex:idx_customer_product;not null" json:"customer_id"`
	ProductID  uint `gorm:"column:product_id;uniqueIndex:idx_customer_product;not null" json:"product_id"`
	// 1 到 5 的整数分值
	Score int `gorm:"column:score;not null" json:"score"`
	// 评论，可选
	Comment string `gorm:"column:comment;type:varchar(500)" json:"comment"`
}

func (Rating) TableName() string { return "ratings" }

// Validate 校验分值范围
func (r *Rating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return ErrInvalidScore
	}
	return nil
}
