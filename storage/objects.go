package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object storage for listing images and avatars. Objects are uploaded by
// path and served back through public URLs, so the bucket must allow
// anonymous reads.

var Objects *minio.Client

var (
	objectsEndpoint string
	objectsBucket   string
	objectsSecure   bool
)

func InitializeObjectStore() {
	objectsEndpoint = os.Getenv("OBJECT_STORE_ENDPOINT")
	if objectsEndpoint == "" {
		objectsEndpoint = "localhost:9000"
		log.Println("OBJECT_STORE_ENDPOINT not set, using localhost:9000 (development mode)")
	}
	objectsBucket = os.Getenv("OBJECT_STORE_BUCKET")
	if objectsBucket == "" {
		objectsBucket = "bodima-media"
	}
	objectsSecure = os.Getenv("OBJECT_STORE_USE_SSL") == "true"

	client, err := minio.New(objectsEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("OBJECT_STORE_ACCESS_KEY"), os.Getenv("OBJECT_STORE_SECRET_KEY"), ""),
		Secure: objectsSecure,
	})
	if err != nil {
		log.Panic("error connecting to object store: " + err.Error())
	}

	ctx := context.Background()
	exists, existsErr := client.BucketExists(ctx, objectsBucket)
	if existsErr != nil {
		log.Panic("error checking object store bucket: " + existsErr.Error())
	}
	if !exists {
		if makeErr := client.MakeBucket(ctx, objectsBucket, minio.MakeBucketOptions{}); makeErr != nil {
			log.Panic("error creating object store bucket: " + makeErr.Error())
		}
	}

	Objects = client
}

// UploadBytes stores the payload at the given path and returns its public URL.
func UploadBytes(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := Objects.PutObject(ctx, objectsBucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return PublicURL(path), nil
}

// PublicURL resolves the anonymous-read URL for an uploaded path.
func PublicURL(path string) string {
	scheme := "http"
	if objectsSecure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, objectsEndpoint, objectsBucket, path)
}

// UploadBase64Image decodes a data-URL (or bare base64) image payload and
// uploads it under dir with a generated file name. Returns the public URL.
func UploadBase64Image(ctx context.Context, base64ImageSrc string, dir string) (string, error) {
	if base64ImageSrc == "" {
		return "", fmt.Errorf("empty image payload")
	}

	contentType := "image/jpeg"
	payload := base64ImageSrc
	if i := strings.Index(base64ImageSrc, ","); i != -1 {
		header := base64ImageSrc[:i]
		payload = base64ImageSrc[i+1:]
		if strings.Contains(header, "image/png") {
			contentType = "image/png"
		} else if strings.Contains(header, "image/webp") {
			contentType = "image/webp"
		}
	}

	data, decodeErr := base64.StdEncoding.DecodeString(payload)
	if decodeErr != nil {
		return "", decodeErr
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload")
	}

	ext := "jpg"
	switch contentType {
	case "image/png":
		ext = "png"
	case "image/webp":
		ext = "webp"
	}

	path := fmt.Sprintf("%s/%s.%s", strings.Trim(dir, "/"), uuid.NewString(), ext)
	return UploadBytes(ctx, path, data, contentType)
}
