package domain

import "time"

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:30;not null" json:"name"`
	BakeryID  uint      `gorm:"index;not null" json:"bakery_id"`
	Bakery    *Bakery   `gorm:"foreignKey:BakeryID" json:"bakery,omitempty"`
	Breads    []Bread   `gorm:"many2many:bread_tags" json:"breads,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
