// Package domain defines the persistence models for users, moments, and the
// namespaced key/value settings table. These types are mapped with GORM and
// form the core data layer of the site backend.
package domain

import "time"

// Namespace discriminators for the Setting ("info") table. Every key/value
// entry belongs to exactly one of these; operations scoped to one namespace
// must never observe entries of another.
const (
	NamespaceCache        = "cache"
	NamespaceServerConfig = "server.config"
	NamespaceClientConfig = "client.config"
)

// User represents an account row. Users are created out-of-band (seed or
// registration flow); this service only reads them to resolve bearer tokens
// into permissions.
//
// Permission values: 1 = admin, 0 = regular user.
type User struct {
	ID         uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	Username   string    `json:"username"   gorm:"type:varchar(64);not null"`
	OpenID     string    `json:"openid"     gorm:"type:varchar(128);not null;uniqueIndex:ux_users_openid"`
	Avatar     string    `json:"avatar"     gorm:"type:varchar(255)"`
	Permission int       `json:"permission" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin permission bit.
func (u *User) IsAdmin() bool { return u.Permission == 1 }

// Moment is a short text post. Moments are listed publicly, newest first,
// and mutated only by admins.
type Moment struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	UID       uint      `json:"uid"        gorm:"not null;index:idx_moments_uid"`
	CreatedAt time.Time `json:"createdAt"  gorm:"index:idx_moments_created"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Moment.
func (Moment) TableName() string { return "moments" }

// Setting is one namespaced key/value entry in the shared "info" table.
// The composite primary key (type, key) is what guarantees that namespaces
// cannot collide: clearing one Type is provably inert for the others.
type Setting struct {
	Type      string    `json:"type"  gorm:"type:varchar(32);not null;primaryKey"`
	Key       string    `json:"key"   gorm:"type:varchar(255);not null;primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "info" }
