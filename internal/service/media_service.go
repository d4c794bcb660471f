package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/repository"
	"alcyxob/plan-tracker/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidImageType         = errors.New("invalid or missing image content type")
	ErrObjectKeyMismatch        = errors.New("object key does not belong to this plan")
	ErrUploadMissing            = errors.New("no uploaded object under this key")
	ErrImageNotFound            = errors.New("plan image not found")
	ErrUploadConfirmationFailed = errors.New("failed to confirm upload")
	ErrUploadURLError           = errors.New("failed to generate upload URL")
	ErrDownloadURLError         = errors.New("failed to generate download URL")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Reported back on confirm
}

// MediaService handles images attached to plans. Files go straight to object storage
// through presigned URLs; only metadata is stored here.
type MediaService interface {
	RequestUploadURL(ctx context.Context, callerID, planID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmUpload(ctx context.Context, callerID, planID primitive.ObjectID, objectKey, fileName string) (*domain.PlanImage, error)
	ListImages(ctx context.Context, callerID, planID primitive.ObjectID) ([]domain.PlanImage, error)
	GetDownloadURL(ctx context.Context, callerID, planID, imageID primitive.ObjectID) (string, error)
	DeleteImage(ctx context.Context, callerID, planID, imageID primitive.ObjectID) error
}

// mediaService implements the MediaService interface.
type mediaService struct {
	planRepo    repository.PlanRepository
	imageRepo   repository.PlanImageRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(
	planRepo repository.PlanRepository,
	imageRepo repository.PlanImageRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
) MediaService {
	return &mediaService{
		planRepo:    planRepo,
		imageRepo:   imageRepo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

func (s *mediaService) getPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ownedPlan returns the plan if callerID created it.
func (s *mediaService) ownedPlan(ctx context.Context, callerID, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.CreatorID != callerID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

// visiblePlan returns the plan if it is public, created by the caller, or created by the
// caller's professional.
func (s *mediaService) visiblePlan(ctx context.Context, callerID, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsPublic || plan.CreatorID == callerID {
		return plan, nil
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanAccessDenied
		}
		return nil, err
	}
	if caller.ManagedBy(plan.CreatorID) {
		return plan, nil
	}
	return nil, ErrPlanAccessDenied
}

// RequestUploadURL generates a presigned PUT URL for a new image of the plan.
func (s *mediaService) RequestUploadURL(ctx context.Context, callerID, planID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	parts := strings.Split(contentType, "/")
	if len(parts) != 2 || parts[0] != "image" || parts[1] == "" {
		return nil, ErrInvalidImageType
	}
	if _, err := s.ownedPlan(ctx, callerID, planID); err != nil {
		return nil, err
	}

	objectKey := storage.PlanImageKey(planID.Hex(), parts[1])
	uploadURL, err := s.fileStorage.PresignPut(ctx, objectKey, contentType)
	if err != nil {
		log.Printf("ERROR: Presigning upload for plan %s: %v", planID.Hex(), err)
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmUpload records metadata for an image the creator has uploaded with a presigned URL.
// Size and content type are read back from storage, not taken from the caller.
func (s *mediaService) ConfirmUpload(ctx context.Context, callerID, planID primitive.ObjectID, objectKey, fileName string) (*domain.PlanImage, error) {
	if !storage.OwnsKey(planID.Hex(), objectKey) {
		return nil, ErrObjectKeyMismatch
	}
	if _, err := s.ownedPlan(ctx, callerID, planID); err != nil {
		return nil, err
	}

	info, err := s.fileStorage.Stat(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadMissing
		}
		log.Printf("ERROR: Reading uploaded object %s: %v", objectKey, err)
		return nil, ErrUploadConfirmationFailed
	}
	if !strings.HasPrefix(strings.ToLower(info.ContentType), "image/") {
		return nil, ErrInvalidImageType
	}

	image := &domain.PlanImage{
		PlanID:      planID,
		UploaderID:  callerID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: info.ContentType,
		Size:        info.Size,
	}
	imageID, err := s.imageRepo.Create(ctx, image)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, err
		}
		return nil, ErrUploadConfirmationFailed
	}
	image.ID = imageID
	return image, nil
}

func (s *mediaService) ListImages(ctx context.Context, callerID, planID primitive.ObjectID) ([]domain.PlanImage, error) {
	if _, err := s.visiblePlan(ctx, callerID, planID); err != nil {
		return nil, err
	}
	images, err := s.imageRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []domain.PlanImage{}
	}
	return images, nil
}

func (s *mediaService) imageOfPlan(ctx context.Context, planID, imageID primitive.ObjectID) (*domain.PlanImage, error) {
	image, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	if image.PlanID != planID {
		return nil, ErrImageNotFound
	}
	return image, nil
}

// GetDownloadURL generates a presigned GET URL for one image of a visible plan.
func (s *mediaService) GetDownloadURL(ctx context.Context, callerID, planID, imageID primitive.ObjectID) (string, error) {
	if _, err := s.visiblePlan(ctx, callerID, planID); err != nil {
		return "", err
	}
	image, err := s.imageOfPlan(ctx, planID, imageID)
	if err != nil {
		return "", err
	}
	downloadURL, err := s.fileStorage.PresignGet(ctx, image.S3ObjectKey)
	if err != nil {
		log.Printf("ERROR: Presigning download of %s: %v", image.S3ObjectKey, err)
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}

// DeleteImage removes the stored object first, then its metadata.
func (s *mediaService) DeleteImage(ctx context.Context, callerID, planID, imageID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, callerID, planID); err != nil {
		return err
	}
	image, err := s.imageOfPlan(ctx, planID, imageID)
	if err != nil {
		return err
	}
	if err := s.fileStorage.Delete(ctx, image.S3ObjectKey); err != nil {
		return err
	}
	return s.imageRepo.Delete(ctx, image.ID)
}
