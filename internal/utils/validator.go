package utils

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator 获取验证器实例
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// 错误里使用 json 字段名
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.Split(f.Tag.Get("json"), ",")[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		// 注册自定义验证函数
		_ = validate.RegisterValidation("notblank", validateNotBlank)
	})
	return validate
}

// validateNotBlank 去掉空白后不能为空
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FieldError 单个字段的验证失败
type FieldError struct {
	Field string
	Tag   string
}

// ValidateStruct 验证结构体，返回失败字段列表，全部通过时为 nil
func ValidateStruct(s interface{}) []FieldError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Tag: err.Error()}}
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, FieldError{Field: e.Field(), Tag: e.Tag()})
	}
	return fields
}

// HasTag 是否存在指定规则的失败
func HasTag(errs []FieldError, tag string) bool {
	for _, e := range errs {
		if e.Tag == tag {
			return true
		}
	}
	return false
}
