package rbac

import (
	"sync"

	"go-presence/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadOrgPolicy(orgID string) error
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer) Service {
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   zap.L().Named("rbac.service"),
	}
}

func (s *service) LoadOrgPolicy(orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadOrgPolicyUnlocked(orgID)
}

// loadOrgPolicyUnlocked rebuilds the in-memory policy from the org's role
// assignments. Caller must hold s.mu.
func (s *service) loadOrgPolicyUnlocked(orgID string) error {
	s.enforcer.ClearPolicy()

	subjectRoles, err := s.repo.GetSubjectRoles(orgID)
	if err != nil {
		return err
	}

	for _, sr := range subjectRoles {
		if _, err := s.enforcer.AddGroupingPolicy(sr.SubjectID, sr.RoleID, orgID); err != nil {
			return err
		}
	}

	rolePerms, err := s.repo.GetRolePermissions(orgID)
	if err != nil {
		return err
	}

	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.RoleID, orgID, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	s.logger.Debug("org policy loaded",
		zap.String("org_id", orgID),
		zap.Int("subject_roles", len(subjectRoles)),
		zap.Int("role_permissions", len(rolePerms)),
	)

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadOrgPolicyUnlocked(req.OrgID); err != nil {
		return false, err
	}

	return s.enforcer.Enforce(req.SubjectID, req.OrgID, req.Resource, req.Action)
}
