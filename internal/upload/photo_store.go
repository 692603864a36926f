package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidType 文件类型不被允许
	ErrInvalidType = errors.New("file type not allowed")
	// ErrTooLarge 文件超过大小限制
	ErrTooLarge = errors.New("file too large")
	// ErrBusy 没有可用的写盘槽位
	ErrBusy = errors.New("upload capacity reached")
)

// 允许的实际内容类型
var sniffedAllowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Limiter 写盘并发槽位
type Limiter interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string)
}

// Options 照片存储配置
type Options struct {
	Dir          string
	MaxSize      int64
	AllowedTypes []string
	Limiter      Limiter // 可为空
}

// PhotoStore 报告照片的本地磁盘存储
type PhotoStore struct {
	dir     string
	maxSize int64
	allowed map[string]bool
	limiter Limiter
	logger  *logrus.Logger
	now     func() time.Time
}

// NewPhotoStore 创建照片存储，目录不存在时创建
func NewPhotoStore(opts Options, logger *logrus.Logger) (*PhotoStore, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	return &PhotoStore{
		dir:     opts.Dir,
		maxSize: opts.MaxSize,
		allowed: allowed,
		limiter: opts.Limiter,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Dir 存储目录
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Path 文件名对应的磁盘路径
func (s *PhotoStore) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Validate 检查声明类型、实际内容和大小
func (s *PhotoStore) Validate(fh *multipart.FileHeader) error {
	declared := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if !s.allowed[declared] {
		return ErrInvalidType
	}
	if fh.Size > s.maxSize {
		return ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return fmt.Errorf("detect upload type: %w", err)
	}
	if !sniffedAllowed[mtype.String()] {
		return ErrInvalidType
	}
	return nil
}

// Save 校验并写入文件，返回生成的文件名
func (s *PhotoStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, "photo-writes"); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBusy, err)
		}
		// 请求超时或断开后仍要归还槽位
		defer s.limiter.Release(context.WithoutCancel(ctx), "photo-writes")
	}

	filename := s.generateName(fh.Filename)
	if err := s.write(fh, filepath.Join(s.dir, filename)); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"photo":    filename,
		"size":     fh.Size,
		"original": fh.Filename,
	}).Info("照片已保存")
	return filename, nil
}

func (s *PhotoStore) write(fh *multipart.FileHeader, target string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	// 多读一个字节，发现超限的实际内容
	n, err := io.Copy(out, io.LimitReader(src, s.maxSize+1))
	closeErr := out.Close()
	if err == nil && n > s.maxSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		if errors.Is(err, ErrTooLarge) {
			return err
		}
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// generateName photo-<毫秒时间戳>-<随机8位>.<原扩展名>
func (s *PhotoStore) generateName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("photo-%d-%s%s", s.now().UnixMilli(), random, ext)
}

// Remove 尽力删除照片，失败只记录日志
func (s *PhotoStore) Remove(filename string) {
	if strings.TrimSpace(filename) == "" {
		return
	}
	if err := os.Remove(s.Path(filename)); err != nil {
		entry := s.logger.WithError(err).WithField("photo", filename)
		if errors.Is(err, os.ErrNotExist) {
			entry.Warn("照片文件不存在")
			return
		}
		entry.Error("删除照片失败")
	}
}

// IsRejection 是否为应当返回400的校验错误
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidType) || errors.Is(err, ErrTooLarge)
}

// RejectionMessage 返回给客户端的提示
func (s *PhotoStore) RejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidType):
		return "Only JPEG, PNG, and JPG images are allowed"
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File too large. Maximum size is %s", humanSize(s.maxSize))
	case errors.Is(err, ErrBusy):
		return "Upload capacity reached, please retry"
	default:
		return "Error uploading photo"
	}
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
