package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
)

// Actor identifies who performed an audited action. A nil Actor records an anonymous entry,
// a zero ID records only the username (failed logins).
type Actor struct {
	ID       uint
	Username string
}

// ActorOf builds an Actor from an authenticated user.
func ActorOf(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Username: u.Username}
}

// LogAction records an audit log entry
func LogAction(db *gorm.DB, actor *Actor, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil || details == nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now().UTC(),
	}
	if actor != nil {
		if actor.ID != 0 {
			id := actor.ID
			log.UserID = &id
		}
		log.Username = actor.Username
	}

	return db.Create(&log).Error
}

// Resource formats a "kind:id" resource reference.
func Resource(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Action   string
	Username string
	Offset   int
	Limit    int
}

// List returns audit entries newest first together with the unpaginated total.
func List(db *gorm.DB, f Filter) ([]models.AuditLog, int64, error) {
	q := db.Model(&models.AuditLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("timestamp DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Audit actions constants
const (
	ActionCreateUser     = "create_user"
	ActionUpdateUser     = "update_user"
	ActionDeleteUser     = "delete_user"
	ActionChangeRole     = "change_role"
	ActionCreateLocation = "create_location"
	ActionUpdateLocation = "update_location"
	ActionDeleteLocation = "delete_location"
	ActionCreateAsset    = "create_asset"
	ActionUpdateAsset    = "update_asset"
	ActionDeleteAsset    = "delete_asset"
	ActionLogin          = "login"
	ActionLoginFailed    = "login_failed"
)

// Resource kinds
const (
	ResourceUser     = "user"
	ResourceLocation = "location"
	ResourceAsset    = "asset"
)
