package utils

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// S3-compatible object storage settings, overridable via the environment.
var (
	accessKey = envOr("S3_ACCESS_KEY", "")
	secretKey = envOr("S3_SECRET_KEY", "")
	bucket    = envOr("S3_BUCKET", "camio-files")
	region    = envOr("S3_REGION", "us-east-1")
	endpoint  = envOr("S3_ENDPOINT", "https://object.pscloud.io")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getS3Client() *s3.S3 {
	sess := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Endpoint:    aws.String(endpoint),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	}))
	return s3.New(sess)
}

func UploadFileToS3(file []byte, fileName string, folder string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", folder, fileName)

	s3Client := getS3Client()

	_, err := s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(filePath),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String("image/jpeg"),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.object.pscloud.io/%s", bucket, filePath), nil
}

// ReceiptStorage stores payment receipts under a dedicated folder. File names
// are prefixed with a random id so concurrent uploads never collide.
type ReceiptStorage struct {
	Folder string
}

func (s ReceiptStorage) UploadReceipt(file []byte, filename string) (string, error) {
	folder := s.Folder
	if folder == "" {
		folder = "receipts"
	}
	name := uuid.New().String()
	if filename != "" {
		name += "-" + strings.ReplaceAll(filename, "/", "_")
	}
	return UploadFileToS3(file, name, folder)
}
