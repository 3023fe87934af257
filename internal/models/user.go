package models

// User represents a registered user: the auth identity (email + password
// hash) together with the profile written at registration. TokenVersion is
// embedded in issued tokens; bumping it invalidates every outstanding
// session, which is how a password change signs the user out everywhere.
type User struct {
	Base
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	Password     string   `gorm:"not null" json:"-"`
	FullName     string   `gorm:"not null" json:"full_name"`
	Job          string   `gorm:"not null" json:"job"`
	TokenVersion int      `gorm:"not null;default:0" json:"-"`
	Budgets      []Budget `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
}
