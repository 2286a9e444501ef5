package services

import (
	"context"
	"strings"

	"github.com/example/blazehunter/internal/models"
)

// Credentials identify the admin on whose behalf a mutation runs.
type Credentials struct {
	Email string `json:"p_email"`
	Key   string `json:"p_key"`
}

// Validate checks that both fields are present, with the messages shown on
// the login form.
func (c Credentials) Validate() error {
	email := strings.TrimSpace(c.Email)
	key := strings.TrimSpace(c.Key)

	switch {
	case email == "" && key == "":
		return NewValidationError("credentials", "Please Enter Your Email And Password.")
	case email == "":
		return NewValidationError("email", "Please Enter Your Email")
	case key == "":
		return NewValidationError("key", "Please Enter Your Password.")
	}
	return nil
}

// Normalized trims surrounding whitespace from both fields.
func (c Credentials) Normalized() Credentials {
	return Credentials{Email: strings.TrimSpace(c.Email), Key: strings.TrimSpace(c.Key)}
}

// AdminAction is the mutation requested through ManageAdmin.
type AdminAction string

const (
	AdminAdd    AdminAction = "ADD"
	AdminUpdate AdminAction = "UPDATE"
	AdminDelete AdminAction = "DELETE"
)

// Valid reports whether a is a known action.
func (a AdminAction) Valid() bool {
	return a == AdminAdd || a == AdminUpdate || a == AdminDelete
}

// AdminTarget is the account affected by ManageAdmin. An empty Password on
// UPDATE keeps the current access key.
type AdminTarget struct {
	Email    string
	Role     string
	Password string
}

// Gateway is the data service boundary. Every mutation re-checks the caller's
// credentials; role checks done by the dashboard are a convenience only.
type Gateway interface {
	VerifyAdminKey(ctx context.Context, creds Credentials) (bool, error)
	List(ctx context.Context, category string) ([]models.ContentItem, error)
	Upsert(ctx context.Context, item models.ContentItem, creds Credentials) (models.ContentItem, error)
	Delete(ctx context.Context, ids []int64, creds Credentials) error
	GetHomeSettings(ctx context.Context) (*models.HomeSettings, error)
	SetHomeSettings(ctx context.Context, settings models.HomeSettings, creds Credentials) error
	ListAdmins(ctx context.Context, creds Credentials) ([]models.AdminAccount, error)
	ManageAdmin(ctx context.Context, action AdminAction, target AdminTarget, creds Credentials) error
}

// validateItem checks the fields the dashboard form requires.
func validateItem(item models.ContentItem) error {
	if strings.TrimSpace(item.NationKey) == "" {
		return NewValidationError("nation_key", "nation key is required")
	}
	if strings.TrimSpace(item.URL) == "" {
		return NewValidationError("url", "image URL is required")
	}
	return nil
}

// validateTarget checks a ManageAdmin request before any lookup happens.
func validateTarget(action AdminAction, target AdminTarget) error {
	if !action.Valid() {
		return NewValidationError("p_action", "invalid admin action")
	}
	if strings.TrimSpace(target.Email) == "" {
		return NewValidationError("p_target_email", "target email is required")
	}
	if action == AdminDelete {
		return nil
	}
	if !models.ValidRole(target.Role) {
		return NewValidationError("p_target_role", "role must be admin or senior_admin")
	}
	if action == AdminAdd && strings.TrimSpace(target.Password) == "" {
		return NewValidationError("p_target_password", "access key is required for new admins")
	}
	return nil
}
