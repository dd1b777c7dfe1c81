package rbac

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/superbmd/superbmd/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

//go:embed policy.yaml
var policyYAML []byte

// Resource is an object kind policies are written against
type Resource string

const (
	ResourceAll       Resource = "*"
	ResourceAsset     Resource = "asset"
	ResourceLocation  Resource = "location"
	ResourceUser      Resource = "user"
	ResourceDashboard Resource = "dashboard"
	ResourceReport    Resource = "report"
	ResourceAuditLog  Resource = "audit_log"
)

// Action is a verb policies grant
type Action string

const (
	ActionRead    Action = "read"
	ActionReadOwn Action = "read_own"
	ActionWrite   Action = "write"
)

// Scope is the set of rows a principal may see for a resource
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwn:
		return "own"
	default:
		return "none"
	}
}

var (
	// ErrSelfRoleChange is returned when a principal tries to change their own role
	ErrSelfRoleChange = errors.New("you cannot change your own role")
	// ErrSelfDelete is returned when a principal tries to delete their own account
	ErrSelfDelete = errors.New("you cannot delete your own account")
)

type grant struct {
	Resource string   `yaml:"resource"`
	Actions  []string `yaml:"actions"`
}

type policyFile struct {
	Roles map[string][]grant `yaml:"roles"`
}

// Rules parses a YAML role policy into casbin (sub, obj, act) rules.
// Unknown roles are rejected.
func Rules(data []byte) ([][]string, error) {
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}

	var rules [][]string
	for _, role := range models.Roles() {
		for _, g := range pf.Roles[string(role)] {
			for _, act := range g.Actions {
				rules = append(rules, []string{string(role), g.Resource, act})
			}
		}
	}
	for name := range pf.Roles {
		if !models.Role(name).Valid() {
			return nil, fmt.Errorf("policy references unknown role %q", name)
		}
	}
	return rules, nil
}

// Policy decides what a principal may do. It is built once at startup and is
// safe for concurrent use.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds a Policy from the embedded role grants. When db is non-nil the
// grants are synced into the casbin_rule table through the gorm adapter;
// otherwise they are kept in memory only.
func New(db *gorm.DB, logger *slog.Logger) (*Policy, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	rules, err := Rules(policyYAML)
	if err != nil {
		return nil, err
	}

	var e *casbin.SyncedEnforcer
	if db != nil {
		adapter, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
		}
		e, err = casbin.NewSyncedEnforcer(m, adapter)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
		}
		e.EnableAutoSave(false)
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
		}
	}

	// The embedded file is authoritative; stored rules are replaced on every start
	e.ClearPolicy()
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if db != nil {
		if err := e.SavePolicy(); err != nil {
			return nil, fmt.Errorf("failed to save policies: %w", err)
		}
	}

	if logger != nil {
		logger.Info("RBAC enforcer initialized", "rules", len(rules), "persisted", db != nil)
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether role may perform act on res
func (p *Policy) Allowed(role models.Role, res Resource, act Action) bool {
	ok, err := p.enforcer.Enforce(string(role), string(res), string(act))
	if err != nil {
		slog.Error("Policy evaluation failed", "role", role, "resource", res, "action", act, "error", err)
		return false
	}
	return ok
}

// Scope returns how much of res the user may read
func (p *Policy) Scope(user *models.User, res Resource) Scope {
	if user == nil {
		return ScopeNone
	}
	switch {
	case p.Allowed(user.Role, res, ActionRead):
		return ScopeAll
	case p.Allowed(user.Role, res, ActionReadOwn):
		return ScopeOwn
	default:
		return ScopeNone
	}
}

// CanWrite reports whether the user may create, update or delete res
func (p *Policy) CanWrite(user *models.User, res Resource) bool {
	return user != nil && p.Allowed(user.Role, res, ActionWrite)
}

// CanViewAsset applies the asset read scope to a single row
func (p *Policy) CanViewAsset(user *models.User, asset *models.Asset) bool {
	switch p.Scope(user, ResourceAsset) {
	case ScopeAll:
		return true
	case ScopeOwn:
		return asset.ResponsibleParty == user.Username
	default:
		return false
	}
}

// CheckRoleChange rejects a principal changing their own role. A nil or
// unchanged role is not a change.
func CheckRoleChange(actor *models.User, targetID uint, newRole *models.Role) error {
	if actor == nil || newRole == nil || actor.ID != targetID {
		return nil
	}
	if *newRole != actor.Role {
		return ErrSelfRoleChange
	}
	return nil
}

// CheckDelete rejects a principal deleting their own account
func CheckDelete(actor *models.User, targetID uint) error {
	if actor != nil && actor.ID == targetID {
		return ErrSelfDelete
	}
	return nil
}
