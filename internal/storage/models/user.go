// internal/storage/models/user.go
package models

// UserRecord mirrors the seller cache maintained by the user repository.
// This layer only reads it.
type UserRecord struct {
	ID             string  `gorm:"primaryKey;type:varchar(64)"`
	Email          string  `gorm:"type:varchar(120)"`
	Username       string  `gorm:"type:varchar(100)"`
	PhoneNumber    string  `gorm:"type:varchar(32)"`
	ProfilePicture *string `gorm:"type:text"`
	Address        string  `gorm:"type:text"`
	Role           string  `gorm:"type:varchar(16)"`
	FirebaseUID    *string `gorm:"type:varchar(128)"`
	AuthProvider   string  `gorm:"type:varchar(16)"`
	CreatedAt      string  `gorm:"type:varchar(64)"`
	DeletedAt      *string `gorm:"type:varchar(64)"`
}

func (UserRecord) TableName() string {
	return "user_records"
}
