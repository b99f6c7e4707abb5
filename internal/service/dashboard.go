package service

import (
	"context"
	"fmt"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
)

const (
	recentActionsLimit     = 10
	dashboardMostViewedCap = 3
)

// Dashboard is the administrator landing page.
type Dashboard struct {
	AdminName            string           `json:"adminName"`
	PasswordCount        int64            `json:"passwordCount"`
	UserCount            int64            `json:"userCount"`
	RecentActions        []string         `json:"recentActions"`
	FeaturedPasswords    []string         `json:"featuredPasswords"`
	MostViewedPasswords  []string         `json:"mostViewedPasswords"`
	CategoryDistribution map[string]int64 `json:"categoryDistribution"`
}

// DashboardService aggregates the administrator dashboard.
type DashboardService struct {
	users     repository.UserRepository
	creds     repository.CredentialRepository
	auditLogs repository.AuditLogRepository
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(users repository.UserRepository, creds repository.CredentialRepository, auditLogs repository.AuditLogRepository) *DashboardService {
	return &DashboardService{users: users, creds: creds, auditLogs: auditLogs}
}

// Build assembles the dashboard for caller. Featured and most viewed lists
// are the caller's own credentials.
func (s *DashboardService) Build(ctx context.Context, caller *middleware.Identity) (*Dashboard, error) {
	passwords, err := s.creds.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count credentials: %w", err)
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	logs, err := s.auditLogs.ListRecent(ctx, recentActionsLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent actions: %w", err)
	}
	featured, err := s.creds.ListFeatured(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list featured credentials: %w", err)
	}
	viewed, err := s.creds.ListMostViewed(ctx, caller.ID, dashboardMostViewedCap)
	if err != nil {
		return nil, fmt.Errorf("list most viewed credentials: %w", err)
	}
	counts, err := s.creds.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count credentials by category: %w", err)
	}

	d := &Dashboard{
		AdminName:            caller.Username,
		PasswordCount:        passwords,
		UserCount:            users,
		RecentActions:        make([]string, 0, len(logs)),
		FeaturedPasswords:    titles(featured),
		MostViewedPasswords:  titles(viewed),
		CategoryDistribution: make(map[string]int64, len(counts)),
	}
	for _, l := range logs {
		d.RecentActions = append(d.RecentActions, l.Action)
	}
	for _, c := range counts {
		d.CategoryDistribution[c.Category] = c.Count
	}
	return d, nil
}

func titles(creds []domain.Credential) []string {
	out := make([]string, 0, len(creds))
	for _, c := range creds {
		out = append(out, c.Title)
	}
	return out
}
