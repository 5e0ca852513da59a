package marketing

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageFolder is the storage prefix for campaign images
const ImageFolder = "campaigns"

// ObjectStorage issues presigned upload URLs
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
}

// UploadURLRequest asks for a presigned upload URL
type UploadURLRequest struct {
	FileName    string `form:"file_name" binding:"required,max=255"`
	ContentType string `form:"content_type" binding:"required,max=100"`
}

// UploadURLResponse describes where and how the client uploads the file
type UploadURLResponse struct {
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	Folder     string    `json:"folder"`
	Method     string    `json:"method"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// UploadService signs direct-to-storage uploads of campaign images
type UploadService struct {
	storage   ObjectStorage
	expiresIn time.Duration
	logger    *zap.Logger
}

// NewUploadService creates a new UploadService. storage may be nil when no
// object storage is configured; every request then fails as unavailable.
func NewUploadService(storage ObjectStorage, expiresIn time.Duration, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{storage: storage, expiresIn: expiresIn, logger: logger}
}

// GenerateImageUploadURL returns a presigned PUT URL for a campaign image
func (s *UploadService) GenerateImageUploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeUnavailable, "File storage is not configured")
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, shared.NewValidationError("Only image uploads are allowed")
	}

	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	key := ImageFolder + "/" + uuid.NewString() + ext

	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.expiresIn)
	if err != nil {
		s.logger.Error("Failed to presign upload", zap.String("storage_key", key), zap.Error(err))
		return nil, shared.NewUpstreamError("Failed to generate upload URL", err)
	}

	return &UploadURLResponse{
		UploadURL:  url,
		StorageKey: key,
		Folder:     ImageFolder,
		Method:     "PUT",
		ExpiresAt:  expiresAt,
	}, nil
}
