package domain

import "time"

type Bakery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:40;uniqueIndex;not null" json:"name"`
	Address   string    `gorm:"size:80;uniqueIndex;not null" json:"address"`
	Breads    []Bread   `gorm:"foreignKey:BakeryID" json:"breads,omitempty"`
	Tags      []Tag     `gorm:"foreignKey:BakeryID" json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
