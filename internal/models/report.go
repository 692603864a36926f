package models

import (
	"time"
)

// Report 损坏报告模型
type Report struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Photo       *string   `gorm:"size:255" json:"photo"` // 只保存文件名
	Description string    `gorm:"type:text;not null" json:"description"`
	ReportTitle string    `gorm:"column:report_title;size:255;not null" json:"report_title"`
	Location    string    `gorm:"size:255;not null" json:"location"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Report) TableName() string {
	return "reports"
}

// HasPhoto 是否带有照片
func (r *Report) HasPhoto() bool {
	return r.Photo != nil && *r.Photo != ""
}
