package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/pagination"
)

// AuthService is the part of *service.AuthService the handlers call.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input service.LoginInput) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ForgotPassword(ctx context.Context, emailOrPhone string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
}

// VerificationService issues and redeems one-time codes.
type VerificationService interface {
	Issue(ctx context.Context, user *domain.User, purpose domain.Purpose) (string, error)
	ConsumeFor(ctx context.Context, code string, userID uuid.UUID, purposes ...domain.Purpose) error
}

// LifecycleService freezes accounts on request.
type LifecycleService interface {
	Freeze(ctx context.Context, userID uuid.UUID) error
}

// UserService covers self service and admin user management.
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*service.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input service.UpdateProfileInput) (*service.Profile, error)
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, upload service.PictureUpload) (*service.Profile, error)
	ListUsers(ctx context.Context, page pagination.Params) (pagination.Result[domain.User], error)
	CreateUser(ctx context.Context, actor string, input service.AdminUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, actor string, id uuid.UUID, input service.AdminUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor string, id uuid.UUID) error
}

// CredentialService manages the caller's stored credentials.
type CredentialService interface {
	Create(ctx context.Context, caller *middleware.Identity, input service.CreateCredentialInput) (*domain.Credential, error)
	Update(ctx context.Context, caller *middleware.Identity, id uuid.UUID, input service.UpdateCredentialInput) (*domain.Credential, error)
	Delete(ctx context.Context, caller *middleware.Identity, id uuid.UUID) error
	List(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error)
	ListByCategory(ctx context.Context, caller *middleware.Identity, category string) ([]domain.Credential, error)
	ToggleFeatured(ctx context.Context, caller *middleware.Identity, id uuid.UUID, featured bool) (*domain.Credential, error)
	Featured(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error)
	MostViewed(ctx context.Context, caller *middleware.Identity, limit int) ([]domain.Credential, error)
	Reveal(ctx context.Context, caller *middleware.Identity, id uuid.UUID) (string, error)
	ViewTrend(ctx context.Context, caller *middleware.Identity) (map[string]int64, error)
}

// CategoryService manages credential categories.
type CategoryService interface {
	ListActive(ctx context.Context) ([]domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, actor string, input service.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, actor string, id uuid.UUID, input service.CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error
}

// DashboardService assembles the admin overview.
type DashboardService interface {
	Build(ctx context.Context, caller *middleware.Identity) (*service.Dashboard, error)
}

// Services bundles everything the router dispatches to.
type Services struct {
	Auth          AuthService
	Authenticator middleware.Authenticator
	Verification  VerificationService
	Lifecycle     LifecycleService
	Users         UserService
	Credentials   CredentialService
	Categories    CategoryService
	Dashboard     DashboardService
}
