package model

import "time"

// 買い物メモのリスト。注文とは無関係。
type List struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Items       []Item    `gorm:"foreignKey:ListID" json:"items"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Item struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	ListID    *int64    `gorm:"index" json:"list_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity  int64     `gorm:"not null;default:1" json:"quantity"`
	Category  string    `gorm:"type:varchar(100);not null" json:"category"`
	Purchased bool      `gorm:"not null;default:false" json:"purchased"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
