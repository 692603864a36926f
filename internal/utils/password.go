package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost 允许的最小哈希强度
const MinBcryptCost = 10

// MaxPasswordBytes bcrypt 能处理的最大密码字节数
const MaxPasswordBytes = 72

// HashPassword 哈希密码，cost 低于 MinBcryptCost 时按 MinBcryptCost 处理
func HashPassword(password string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
