package model

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 5

// PasswordHashCost bcrypt 计算成本（测试中可调低）
var PasswordHashCost = 12

var (
	// ErrMissingEmail 创建用户时未提供邮箱
	ErrMissingEmail = errors.New("users must have an email address")

	// ErrPasswordTooShort 密码长度不足
	ErrPasswordTooShort = errors.New("password is too short")
)

// User 用户
//
// 邮箱唯一，本地部分保留大小写，域名部分统一小写。
type User struct {
	ID           int64      `json:"id" bson:"_id" db:"id"`
	Email        string     `json:"email" bson:"email" db:"email"`
	Name         string     `json:"name" bson:"name" db:"name"`
	PasswordHash string     `json:"-" bson:"password_hash" db:"password_hash"` // never expose in JSON
	IsActive     bool       `json:"is_active" bson:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" bson:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" bson:"is_superuser" db:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty" bson:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// NewUser 创建普通用户，密码在返回前完成哈希
func NewUser(email, password, name string) (*User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	now := time.Now().UTC()
	user := &User{
		Email:     NormalizeEmail(email),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// NewSuperuser 创建超级管理员
func NewSuperuser(email, password, name string) (*User, error) {
	user, err := NewUser(email, password, name)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	return user, nil
}

// SetPassword 哈希并设置密码
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// NormalizeEmail 规范化邮箱：域名部分转小写，本地部分保持不变
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail 校验邮箱格式
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
