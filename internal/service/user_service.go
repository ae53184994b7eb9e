package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/choncance/choncance-backend/internal/storage"
	"github.com/choncance/choncance-backend/pkg/config"
	"github.com/choncance/choncance-backend/pkg/events"
	"github.com/choncance/choncance-backend/pkg/logger"
	"github.com/google/uuid"
)

const MsgHostRequested = "Host application submitted. You can start hosting once an administrator approves it."

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

type UserService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *domain.UpdateProfileRequest) (*domain.UserInfo, error)
	UploadPhoto(ctx context.Context, userID uuid.UUID, filename string, size int64, r io.Reader) (*domain.PhotoUploadResponse, error)
	RequestHost(ctx context.Context, user *domain.User, req *domain.HostRequestRequest) (*domain.HostRequestResponse, error)
	ListHostRequests(ctx context.Context, status string, limit, offset int) ([]domain.HostRequestView, error)
	ReviewHostRequest(ctx context.Context, userID uuid.UUID, approve bool) (*domain.HostProfile, error)
}

type userService struct {
	userRepo repository.UserRepository
	hostRepo repository.HostProfileRepository
	store    storage.Store
	eventBus events.Publisher
	config   *config.Config
}

func NewUserService(
	userRepo repository.UserRepository,
	hostRepo repository.HostProfileRepository,
	store storage.Store,
	eventBus events.Publisher,
	config *config.Config,
) UserService {
	return &userService{
		userRepo: userRepo,
		hostRepo: hostRepo,
		store:    store,
		eventBus: eventBus,
		config:   config,
	}
}

func userNotFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeUserNotFound, "User not found")
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *domain.UpdateProfileRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("update profile: %w", err))
	}
	if user == nil {
		return nil, userNotFound()
	}
	return user.ToUserInfo(), nil
}

// UploadPhoto stores the image as <user-id><ext>, replacing any earlier upload
// with the same extension.
func (s *userService) UploadPhoto(ctx context.Context, userID uuid.UUID, filename string, size int64, r io.Reader) (*domain.PhotoUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, apperr.BadRequest(apperr.CodeInvalidFileType, "Unsupported file type (jpg, jpeg, png, webp only)")
	}
	limit := s.config.Storage.MaxUploadBytes
	if size > limit {
		return nil, apperr.BadRequest(apperr.CodeFileTooLarge, fmt.Sprintf("File size cannot exceed %dMB", limit/(1024*1024)))
	}

	path, err := s.store.Save(ctx, userID.String()+ext, io.LimitReader(r, limit), size, contentType)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("save profile image: %w", err))
	}

	user, err := s.userRepo.UpdateProfileImage(ctx, userID, path)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("update profile image: %w", err))
	}
	if user == nil {
		return nil, userNotFound()
	}
	return &domain.PhotoUploadResponse{ProfileImage: path}, nil
}

func (s *userService) RequestHost(ctx context.Context, user *domain.User, req *domain.HostRequestRequest) (*domain.HostRequestResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if user.Role == domain.RoleHost || user.Role == domain.RoleHostPending {
		return nil, alreadyHost()
	}

	existing, err := s.hostRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check host profile: %w", err))
	}
	if existing != nil {
		return nil, hostProfileExists()
	}

	profile, err := s.hostRepo.CreatePending(ctx, user.ID, req)
	switch {
	case errors.Is(err, repository.ErrHostProfileExists):
		return nil, hostProfileExists()
	case errors.Is(err, repository.ErrRoleChanged):
		return nil, alreadyHost()
	case err != nil:
		return nil, apperr.Internal(fmt.Errorf("create host profile: %w", err))
	}

	s.publish(ctx, events.HostRequested, events.HostRequestedEvent{
		UserID:         user.ID.String(),
		BusinessNumber: profile.BusinessNumber,
		RequestedAt:    profile.CreatedAt,
	})
	logger.InfoContext(ctx, "Host request submitted", "user_id", user.ID)

	return &domain.HostRequestResponse{
		Message: MsgHostRequested,
		Status:  profile.Status,
	}, nil
}

func alreadyHost() *apperr.Error {
	return apperr.BadRequest(apperr.CodeAlreadyHostOrPending, "Already a host or awaiting approval")
}

func hostProfileExists() *apperr.Error {
	return apperr.BadRequest(apperr.CodeHostProfileExists, "A host profile already exists")
}

func (s *userService) ListHostRequests(ctx context.Context, status string, limit, offset int) ([]domain.HostRequestView, error) {
	st := domain.HostStatusPending
	if status != "" {
		parsed, ok := domain.ParseHostStatus(status)
		if !ok {
			return nil, apperr.Validation(apperr.CodeInvalidStatus, "status must be one of PENDING, APPROVED, REJECTED")
		}
		st = parsed
	}

	views, err := s.hostRepo.ListByStatus(ctx, st, limit, offset)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list host requests: %w", err))
	}
	return views, nil
}

func (s *userService) ReviewHostRequest(ctx context.Context, userID uuid.UUID, approve bool) (*domain.HostProfile, error) {
	status := domain.HostStatusRejected
	if approve {
		status = domain.HostStatusApproved
	}

	profile, err := s.hostRepo.Review(ctx, userID, status)
	switch {
	case errors.Is(err, repository.ErrHostProfileNotFound):
		return nil, apperr.NotFound(apperr.CodeHostProfileNotFound, "Host request not found")
	case errors.Is(err, repository.ErrNotPending):
		return nil, apperr.BadRequest(apperr.CodeHostRequestNotPending, "Host request has already been reviewed")
	case err != nil:
		return nil, apperr.Internal(fmt.Errorf("review host request: %w", err))
	}

	s.publish(ctx, events.HostReviewed, events.HostReviewedEvent{
		UserID:     userID.String(),
		Status:     string(status),
		ReviewedAt: time.Now().UTC(),
	})
	logger.InfoContext(ctx, "Host request reviewed", "user_id", userID, "status", status)
	return profile, nil
}

func (s *userService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.eventBus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
