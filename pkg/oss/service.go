package oss

import (
	"context"
	"io"
	"strings"

	"stationery/pkg/core/config"
	errorc "stationery/pkg/core/err"
	"stationery/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// AliyunService 阿里云OSS服务，用于归档监控日报
type AliyunService struct {
	config *config.OssConfig
	client *oss.Client
	log    *logger.Log
	err    *errorc.ErrorBuilder
}

// NewAliyunService 创建阿里云OSS服务实例
func NewAliyunService(cfg *config.OssConfig) (*AliyunService, error) {
	log := logger.GetLogger().WithEntryName("AliyunOSSService")
	errBuilder := errorc.NewErrorBuilder("AliyunOSSService")

	if !cfg.Enabled() {
		return nil, errBuilder.New("阿里云配置不完整", nil).ValidWithCtx().ToLog(log.Entry)
	}

	provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, "")
	ossCfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(provider).
		WithRegion(cfg.Region)

	if cfg.Domain != "" {
		ossCfg = ossCfg.WithEndpoint(cfg.Domain).WithUseCName(true)
	}

	log.Info("阿里云OSS服务初始化完成")
	return &AliyunService{
		config: cfg,
		client: oss.NewClient(ossCfg),
		log:    log,
		err:    errBuilder,
	}, nil
}

// UploadFile 上传文件
func (s *AliyunService) UploadFile(ctx context.Context, objectKey string, reader io.Reader) error {
	objectKey = normalizeKey(objectKey)
	s.log.WithTrace(ctx).WithField("objectKey", objectKey).Info("上传文件到阿里云OSS")

	request := &oss.PutObjectRequest{
		Bucket: oss.Ptr(s.config.Bucket),
		Key:    oss.Ptr(objectKey),
		Body:   reader,
	}

	if _, err := s.client.PutObject(ctx, request); err != nil {
		return s.err.New("上传文件到阿里云OSS失败", err).Third().WithTraceID(ctx).ToLog(s.log.Entry)
	}
	return nil
}

// DownloadFile 下载文件内容，调用方负责关闭
func (s *AliyunService) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	objectKey = normalizeKey(objectKey)

	request := &oss.GetObjectRequest{
		Bucket: oss.Ptr(s.config.Bucket),
		Key:    oss.Ptr(objectKey),
	}

	result, err := s.client.GetObject(ctx, request)
	if err != nil {
		return nil, s.err.New("下载阿里云文件失败", err).Third().WithTraceID(ctx).ToLog(s.log.Entry)
	}
	return result.Body, nil
}

// 保证objectKey不以"/"开头
func normalizeKey(objectKey string) string {
	return strings.TrimPrefix(objectKey, "/")
}
