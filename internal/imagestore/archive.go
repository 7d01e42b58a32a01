// Package imagestore は生成したチラシ画像をS3互換オブジェクトストレージへ保存する。
// 保存はベストエフォートであり、失敗してもAPIの応答には影響しない。
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive は生成画像の保存先のインターフェース。
type Archive interface {
	// Store は画像を保存し、オブジェクトキーを返す。
	Store(ctx context.Context, userID, contentID string, image []byte) (string, error)
	// Remove はコンテンツに対応する画像を削除する。存在しない場合もエラーにしない。
	Remove(ctx context.Context, userID, contentID string) error
}

// objectClient はminio.Clientのうち使用するメソッドのみを抜き出したインターフェース。
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Config はオブジェクトストレージの接続設定。
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioArchive はminio-goを使用したArchiveの実装。
type MinioArchive struct {
	client objectClient
	bucket string
}

// NewMinioArchive はMinioArchiveを生成する。接続自体は最初の保存時に行われる。
func NewMinioArchive(cfg Config) (*MinioArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &MinioArchive{client: client, bucket: cfg.Bucket}, nil
}

// ObjectKey はコンテンツ画像のオブジェクトキーを返す。
func ObjectKey(userID, contentID string) string {
	return fmt.Sprintf("flyers/%s/%s.png", userID, contentID)
}

func (a *MinioArchive) Store(ctx context.Context, userID, contentID string, image []byte) (string, error) {
	key := ObjectKey(userID, contentID)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(image), int64(len(image)),
		minio.PutObjectOptions{ContentType: http.DetectContentType(image)})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return key, nil
}

func (a *MinioArchive) Remove(ctx context.Context, userID, contentID string) error {
	key := ObjectKey(userID, contentID)
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// Noop は何も保存しないArchive。オブジェクトストレージ未設定時に使用する。
type Noop struct{}

func (Noop) Store(context.Context, string, string, []byte) (string, error) { return "", nil }
func (Noop) Remove(context.Context, string, string) error                 { return nil }

// compile-time interface checks
var (
	_ Archive      = (*MinioArchive)(nil)
	_ Archive      = Noop{}
	_ objectClient = (*minio.Client)(nil)
)
