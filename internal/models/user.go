package models

// Admin roles.
const (
	RoleAdmin       = "admin"
	RoleSeniorAdmin = "senior_admin"
)

// AdminAccount is a whitelisted dashboard user. AccessKey holds the bcrypt hash
// of the secret and is never serialised.
type AdminAccount struct {
	Email     string `gorm:"primaryKey" json:"email"`
	AccessKey string `gorm:"not null" json:"-"`
	Role      string `gorm:"not null;default:admin" json:"role"`
	Timestamps
}

func (AdminAccount) TableName() string {
	return "admin_access"
}

// IsSenior reports whether the account may manage other admins.
func (a AdminAccount) IsSenior() bool {
	return a.Role == RoleSeniorAdmin
}

// ValidRole reports whether role is one of the known admin roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSeniorAdmin
}
