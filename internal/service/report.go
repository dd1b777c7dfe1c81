package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"github.com/superbmd/superbmd/internal/report"
	"gorm.io/gorm"
)

// ReportService scopes the report projections and caches the dashboard.
type ReportService struct {
	db     *gorm.DB
	policy *rbac.Policy
	cache  cache.Cache
}

// NewReportService creates a new ReportService.
func NewReportService(db *gorm.DB, policy *rbac.Policy, c cache.Cache) *ReportService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ReportService{db: db, policy: policy, cache: c}
}

// owner resolves the responsible-party restriction for res, or forbids the read.
func (s *ReportService) owner(actor *models.User, res rbac.Resource) (string, error) {
	switch s.policy.Scope(actor, res) {
	case rbac.ScopeAll:
		return "", nil
	case rbac.ScopeOwn:
		return actor.Username, nil
	default:
		return "", errForbidden
	}
}

func dashboardKey(scope rbac.Scope, owner string) string {
	return fmt.Sprintf("dashboard:%s:%s", scope, owner)
}

// Dashboard returns the summary figures, served from cache when possible.
func (s *ReportService) Dashboard(ctx context.Context, actor *models.User) (*report.Dashboard, error) {
	owner, err := s.owner(actor, rbac.ResourceDashboard)
	if err != nil {
		return nil, err
	}
	key := dashboardKey(s.policy.Scope(actor, rbac.ResourceDashboard), owner)

	// The generation is read before computing so that a mutation committed
	// in between makes the Set below a no-op.
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		slog.Warn("Dashboard cache unavailable", "key", key, "error", err)
		return report.BuildDashboard(ctx, s.db, owner)
	}

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("Dashboard cache read failed", "key", key, "error", err)
	} else if ok {
		var d report.Dashboard
		if err := json.Unmarshal(raw, &d); err == nil {
			return &d, nil
		}
	}

	d, err := report.BuildDashboard(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(d); err == nil {
		if err := s.cache.Set(ctx, gen, key, raw); err != nil {
			slog.Warn("Dashboard cache write failed", "key", key, "error", err)
		}
	}
	return d, nil
}

// ByLocation returns per-location asset counts within the actor's scope.
func (s *ReportService) ByLocation(ctx context.Context, actor *models.User, f query.ReportFilter) ([]report.LocationRow, error) {
	owner, err := s.owner(actor, rbac.ResourceReport)
	if err != nil {
		return nil, err
	}
	f.Owner = owner
	return report.ByLocation(ctx, s.db, f)
}

// ByCondition returns per-condition asset counts within the actor's scope.
func (s *ReportService) ByCondition(ctx context.Context, actor *models.User, f query.ReportFilter) ([]report.ConditionRow, error) {
	owner, err := s.owner(actor, rbac.ResourceReport)
	if err != nil {
		return nil, err
	}
	f.Owner = owner
	return report.ByCondition(ctx, s.db, f)
}

// InOut returns the intake and update activity within the actor's scope.
func (s *ReportService) InOut(ctx context.Context, actor *models.User, f query.ReportFilter) ([]report.InOutRow, error) {
	owner, err := s.owner(actor, rbac.ResourceReport)
	if err != nil {
		return nil, err
	}
	f.Owner = owner
	return report.InOut(ctx, s.db, f)
}

// AuditLogs returns one page of the audit trail. Only admins may read it.
func (s *ReportService) AuditLogs(ctx context.Context, actor *models.User, action, username string, p query.Page) (*query.Result[models.AuditLog], error) {
	if s.policy.Scope(actor, rbac.ResourceAuditLog) != rbac.ScopeAll {
		return nil, errForbidden
	}

	logs, total, err := audit.List(s.db.WithContext(ctx), audit.Filter{
		Action:   action,
		Username: username,
		Offset:   p.Offset(),
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return &query.Result[models.AuditLog]{Items: logs, Pagination: query.NewPagination(total, p)}, nil
}
