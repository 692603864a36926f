package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:uq_users_email" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	StudentID string    `gorm:"column:student_id;size:255;not null;uniqueIndex:uq_users_student_id" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Reports []Report `gorm:"foreignKey:UserID" json:"reports,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
