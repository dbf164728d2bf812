// Package domain 包含限时特价的领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrOfferNotFound 特价不存在或已过期
var ErrOfferNotFound = errors.New("offer not found")

// Offer 商品限时特价
// 同一商品同时只允许一个有效特价，创建新特价时删除旧的
type Offer struct {
	gorm.Model
	// 文案
	Description string `gorm:"column:description;type:varchar(150)" json:"description"`
	// 特价
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 有效期截止时间
	ValidUntil time.Time `gorm:"column:valid_until;not null;index" json:"valid_until"`
	// 目标商品
	ProductID uint `gorm:"column:product_id;not null;index" json:"product_id"`
	// 创建该特价的后台用户
	OwnerID uint `gorm:"column:owner_id;not null" json:"owner_id"`
	// 是否作为首页横幅展示
	IsBanner bool `gorm:"column:is_banner;not null;default:false" json:"is_banner"`
}

func (Offer) TableName() string { return "offers" }

// Active 截止时间在 now 之前的特价视为失效
func (o *Offer) Active(now time.Time) bool {
	return !o.ValidUntil.Before(now)
}
