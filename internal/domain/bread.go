package domain

import "time"

type Bread struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:50;not null" json:"name"`
	Price      float64   `gorm:"not null" json:"price"`
	Currency   string    `gorm:"size:3;not null" json:"currency"`
	GlutenFree bool      `gorm:"not null" json:"gluten_free"`
	Info       string    `gorm:"size:512" json:"info,omitempty"`
	BakeryID   uint      `gorm:"index;not null" json:"bakery_id"`
	Bakery     *Bakery   `gorm:"foreignKey:BakeryID" json:"bakery,omitempty"`
	Tags       []Tag     `gorm:"many2many:bread_tags" json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
