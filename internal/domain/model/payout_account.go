package model

import "time"

// PayoutAccount maps an author to the connected account payouts are sent to
type PayoutAccount struct {
	AuthorID          string    `gorm:"primaryKey;size:64" json:"author_id"`
	ProviderAccountID string    `gorm:"column:provider_account_id;not null;size:100;index" json:"provider_account_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PayoutAccount) TableName() string {
	return "payout_accounts"
}
