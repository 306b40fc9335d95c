package model

import (
	"golang.org/x/crypto/bcrypt"
)

// User 用户模型, 目前没有路由读写该表, 为多用户登录预留
type User struct {
	ID           uint   `gorm:"primarykey;autoIncrement"`
	Username     string `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password;type:varchar(255);not null"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// SetPassword 加密并设置密码
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
