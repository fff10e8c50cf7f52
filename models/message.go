package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Subject     *string    `gorm:"size:255" json:"subject,omitempty"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Sender    User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE;" json:"-"`
}
