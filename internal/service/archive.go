package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/telnetscriptpro/telnetscriptpro/internal/config"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// StorageWriter 抽象归档写入器
type StorageWriter interface {
	Write(ctx context.Context, meta ArchiveMeta, content string) (string, error)
}

// ArchiveMeta 归档元数据
type ArchiveMeta struct {
	TaskID string
	Host   string
}

// NewStorageWriter 根据配置创建写入器：minio 后端失败时回退本地
func NewStorageWriter(cfg *config.Config) StorageWriter {
	dw := &delegatingWriter{cfg: cfg, local: &localWriter{cfg: cfg}}
	if strings.EqualFold(cfg.Archive.Backend, "minio") {
		dw.minio = newMinioWriter(cfg)
	}
	return dw
}

type delegatingWriter struct {
	cfg   *config.Config
	local *localWriter
	minio *minioWriter
}

func (w *delegatingWriter) Write(ctx context.Context, meta ArchiveMeta, content string) (string, error) {
	if w.minio != nil {
		loc, err := w.minio.Write(ctx, meta, content)
		if err == nil {
			return loc, nil
		}
		logger.Warn("MinIO write failed; falling back to local: ", err)
	}
	return w.local.Write(ctx, meta, content)
}

// localWriter 本地文件归档
type localWriter struct {
	cfg *config.Config
}

func (w *localWriter) Write(_ context.Context, meta ArchiveMeta, content string) (string, error) {
	baseDir := strings.TrimSpace(w.cfg.Archive.Local.BaseDir)
	if baseDir == "" {
		baseDir = "./data/archives"
	}

	// 层级：baseDir / prefix / host / date / taskID.txt
	parts := []string{baseDir}
	if p := strings.TrimSpace(w.cfg.Archive.Prefix); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, slug(meta.Host), time.Now().Format("20060102"))
	dirPath := filepath.Join(parts...)

	if w.cfg.Archive.Local.MkdirIfMissing {
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return "", fmt.Errorf("failed to create archive dir: %w", err)
		}
	}

	filePath := filepath.Join(dirPath, meta.TaskID+".txt")
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return filePath, nil
}

// minioWriter 对象存储归档
type minioWriter struct {
	cfg    *config.Config
	client *minio.Client
}

func newMinioWriter(cfg *config.Config) *minioWriter {
	mc := cfg.Archive.Minio
	if strings.TrimSpace(mc.Host) == "" {
		logger.Warn("MinIO backend selected but host not configured")
		return nil
	}
	endpoint := fmt.Sprintf("%s:%d", mc.Host, mc.Port)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.Secure,
	})
	if err != nil {
		logger.Warn("MinIO client init failed: ", err)
		return nil
	}
	return &minioWriter{cfg: cfg, client: client}
}

func (w *minioWriter) Write(ctx context.Context, meta ArchiveMeta, content string) (string, error) {
	if w == nil || w.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	bucket := w.cfg.Archive.Minio.Bucket

	exists, err := w.client.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := w.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	objectName := path.Join(
		strings.TrimSpace(w.cfg.Archive.Prefix),
		slug(meta.Host),
		time.Now().Format("20060102"),
		meta.TaskID+".txt",
	)
	reader := bytes.NewReader([]byte(content))
	_, err = w.client.PutObject(ctx, bucket, objectName, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return path.Join(bucket, objectName), nil
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// slug 将主机名等标识净化为安全的路径片段
func slug(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return slugPattern.ReplaceAllString(s, "_")
}
