package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/choncance/choncance-backend/internal/repository"
	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	findErr error
	lookups int
	// raceOnCreate makes Create report a concurrent registration.
	raceOnCreate bool
	// updatePasswordErrs are returned, one per call, before UpdatePassword succeeds.
	updatePasswordErrs []error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[uuid.UUID]*domain.User{}}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u
}

func (f *fakeUserRepo) get(id uuid.UUID) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (f *fakeUserRepo) Create(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return nil, repository.ErrEmailTaken
	}
	for _, u := range f.byID {
		if u.Email == req.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         domain.RoleGuest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	f.lookups++
	err := f.findErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.get(id), nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, req *domain.UpdateProfileRequest) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	u.Name, u.Phone = req.Name, req.Phone
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateProfileImage(ctx context.Context, id uuid.UUID, path string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	u.ProfileImage = &path
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updatePasswordErrs) > 0 {
		err := f.updatePasswordErrs[0]
		f.updatePasswordErrs = f.updatePasswordErrs[1:]
		return false, err
	}
	u, ok := f.byID[id]
	if !ok || u.PasswordHash != oldHash {
		return false, nil
	}
	u.PasswordHash = newHash
	return true, nil
}

// fakeHostRepo shares account state with a fakeUserRepo so role changes are visible.
type fakeHostRepo struct {
	mu       sync.Mutex
	users    *fakeUserRepo
	profiles map[uuid.UUID]*domain.HostProfile
}

func newFakeHostRepo(users *fakeUserRepo) *fakeHostRepo {
	return &fakeHostRepo{users: users, profiles: map[uuid.UUID]*domain.HostProfile{}}
}

func (f *fakeHostRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.HostProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeHostRepo) CreatePending(ctx context.Context, userID uuid.UUID, req *domain.HostRequestRequest) (*domain.HostProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users.mu.Lock()
	defer f.users.mu.Unlock()

	u, ok := f.users.byID[userID]
	if !ok || u.Role != domain.RoleGuest {
		return nil, repository.ErrRoleChanged
	}
	if _, exists := f.profiles[userID]; exists {
		return nil, repository.ErrHostProfileExists
	}
	now := time.Now().UTC()
	p := &domain.HostProfile{
		ID:             uuid.New(),
		UserID:         userID,
		BusinessNumber: req.BusinessNumber,
		Contact:        req.Contact,
		Status:         domain.HostStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.profiles[userID] = p
	u.Role = domain.RoleHostPending
	cp := *p
	return &cp, nil
}

func (f *fakeHostRepo) ListByStatus(ctx context.Context, status domain.HostStatus, limit, offset int) ([]domain.HostRequestView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	views := []domain.HostRequestView{}
	for _, p := range f.profiles {
		if p.Status == status {
			views = append(views, domain.HostRequestView{HostProfile: *p})
		}
	}
	return views, nil
}

func (f *fakeHostRepo) Review(ctx context.Context, userID uuid.UUID, status domain.HostStatus) (*domain.HostProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users.mu.Lock()
	defer f.users.mu.Unlock()

	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrHostProfileNotFound
	}
	if p.Status != domain.HostStatusPending {
		return nil, repository.ErrNotPending
	}
	p.Status = status
	if u, ok := f.users.byID[userID]; ok {
		u.Role, u.IsHostApproved = domain.RoleGuest, false
		if status == domain.HostStatusApproved {
			u.Role, u.IsHostApproved = domain.RoleHost, true
		}
	}
	cp := *p
	return &cp, nil
}

type fakeResetStore struct {
	mu   sync.Mutex
	used map[string]bool
	err  error
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{used: map[string]bool{}}
}

func (f *fakeResetStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.used[jti] {
		return false, nil
	}
	f.used[jti] = true
	return true, nil
}

func (f *fakeResetStore) Release(ctx context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.used, jti)
	return nil
}

type sentMail struct {
	To, Name, URL string
	ExpiresIn     time.Duration
	CtxErr        error
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block chan struct{}
}

func (f *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetURL string, expiresIn time.Duration) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: toEmail, Name: toName, URL: resetURL, ExpiresIn: expiresIn, CtxErr: ctx.Err()})
	return f.err
}

func (f *fakeMailer) last() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	f.types[name] = contentType
	return "/uploads/profiles/" + name, nil
}

func (f *fakeStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return io.NopCloser(bytes.NewReader(f.objects[name])), nil
}
