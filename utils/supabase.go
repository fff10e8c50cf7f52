package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

var allowedResumeExt = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ResumeStorage upload CV của ứng viên lên Supabase Storage.
type ResumeStorage struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

// NewResumeStorage trả về nil khi thiếu SUPABASE_URL/SUPABASE_KEY.
func NewResumeStorage(supabaseURL, supabaseKey, bucket string) *ResumeStorage {
	if supabaseURL == "" || supabaseKey == "" {
		return nil
	}
	if bucket == "" {
		bucket = "uploads"
	}
	base := strings.TrimRight(supabaseURL, "/")
	return &ResumeStorage{
		client:  storage.NewClient(base+"/storage/v1", supabaseKey, nil),
		baseURL: base,
		bucket:  bucket,
	}
}

// UploadResume lưu file tại <bucket>/resumes/<fileID>.<ext> và trả về public URL.
func (s *ResumeStorage) UploadResume(fileHeader *multipart.FileHeader, fileID string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedResumeExt[ext]
	if !ok {
		return "", errors.New("unsupported resume format (pdf, doc, docx)")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}

	objectPath := fmt.Sprintf("resumes/%s%s", fileID, ext)
	_, err = s.client.UploadFile(s.bucket, objectPath, &buf, storage.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload resume: %w", err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

// RemoveResume xóa object mà UploadResume đã tạo, nhận lại chính public URL đó.
func (s *ResumeStorage) RemoveResume(publicURL string) error {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	objectPath := strings.TrimPrefix(publicURL, prefix)
	if objectPath == publicURL || objectPath == "" {
		return fmt.Errorf("resume URL %q is not in bucket %s", publicURL, s.bucket)
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("remove resume: %w", err)
	}
	return nil
}
