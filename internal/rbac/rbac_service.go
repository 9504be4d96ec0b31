package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type EnforceRequest struct {
	Role     Role
	Resource string
	Action   string
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
	Capabilities(role Role) []Capability
}

type service struct {
	enforcer *casbin.Enforcer
	policy   map[Role][]Capability
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewService loads policy into the enforcer once; the policy is immutable afterwards.
func NewService(enforcer *casbin.Enforcer, policy map[Role][]Capability, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	enforcer.ClearPolicy()
	for role, caps := range policy {
		for _, c := range caps {
			if _, err := enforcer.AddPolicy(string(role), c.Resource, c.Action); err != nil {
				return nil, err
			}
		}
		l.Debug("rbac policy loaded", zap.String("role", role.String()), zap.Int("capabilities", len(caps)))
	}

	return &service{enforcer: enforcer, policy: policy, logger: l}, nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	if !req.Role.Valid() {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(string(req.Role), req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role.String()),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role.String()),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) Capabilities(role Role) []Capability {
	caps := s.policy[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
