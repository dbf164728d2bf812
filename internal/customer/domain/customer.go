// Package domain 包含客户与地址的领域模型
package domain

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrCustomerNotFound 客户不存在
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAddressNotFound 地址不存在或不属于该客户
	ErrAddressNotFound = errors.New("address not found")
)

// Customer 客户实体
type Customer struct {
	gorm.Model
	// 名
	FirstName string `gorm:"column:first_name;type:varchar(50);not null" json:"first_name"`
	// 姓
	LastName string `gorm:"column:last_name;type:varchar(50)" json:"last_name"`
	// 巴西个人税号
	CPF string `gorm:"column:cpf;type:varchar(14);uniqueIndex" json:"cpf"`
	// 性别
	Gender string `gorm:"column:gender;type:varchar(10)" json:"gender"`
	// 出生日期
	BirthDate *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	// 登录邮箱
	Email string `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	// bcrypt 密码散列
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	// 后台用户标记
	IsStaff bool `gorm:"column:is_staff;not null;default:false" json:"is_staff"`
	// 客户当前购物车，登录认领或合并后指向它
	CartID *uint `gorm:"column:cart_id" json:"cart_id,omitempty"`
	// 收货地址
	Addresses []Address `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
}

func (Customer) TableName() string { return "customers" }

// SetPassword 以 bcrypt 散列保存密码
func (c *Customer) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (c *Customer) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(plain)) == nil
}

// HasAddress 客户是否拥有该收货地址
func (c *Customer) HasAddress(addressID uint) bool {
	for _, address := range c.Addresses {
		if address.ID == addressID {
			return true
		}
	}
	return false
}

// Address 收货地址，字段沿用巴西邮政习惯
type Address struct {
	gorm.Model
	CustomerID uint `gorm:"column:customer_id;not null;index" json:"customer_id"`
	// 街道
	Street string `gorm:"column:street;type:varchar(100);not null" json:"street"`
	// 门牌号
	Number string `gorm:"column:number;type:varchar(10)" json:"number"`
	// 补充信息
	Complement string `gorm:"column:complement;type:varchar(100)" json:"complement"`
	// 街区
	District string `gorm:"column:district;type:varchar(50)" json:"district"`
	// 城市
	City string `gorm:"column:city;type:varchar(50);not null" json:"city"`
	// 州缩写 UF
	State string `gorm:"column:state;type:char(2);not null" json:"state"`
	// 邮编 CEP
	ZipCode string `gorm:"column:zip_code;type:varchar(9)" json:"zip_code"`
}

func (Address) TableName() string { return "addresses" }
