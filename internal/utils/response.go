package utils

import (
	"net/http"

	"campus-report/internal/apperror"

	"github.com/gin-gonic/gin"
)

// Response 统一响应格式
type Response struct {
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination 计算总页数 ceil(total/limit)
func NewPagination(total int64, page, limit int) *Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Pagination{
		TotalItems:   total,
		TotalPages:   pages,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}
}

// SuccessWithMessage 成功响应(带消息)
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Message: message,
		Data:    data,
	})
}

// Created 201响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Message: message,
		Data:    data,
	})
}

// PaginatedResponse 分页响应
func PaginatedResponse(c *gin.Context, message string, data interface{}, pagination *Pagination) {
	c.JSON(http.StatusOK, Response{
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Message: message,
	})
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// Fail 把服务层错误映射为响应，500时在 error 字段带出原因
func Fail(c *gin.Context, err error, fallback string) {
	appErr := apperror.From(err, fallback)
	resp := Response{Message: appErr.Message}
	if appErr.Kind == apperror.KindUnexpected && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}
	_ = c.Error(err)
	c.JSON(appErr.Status(), resp)
}
