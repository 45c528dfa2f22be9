package domain

import "time"

const DefaultCategoryType = "default"

type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CategoryName string    `json:"categoryName" gorm:"not null;uniqueIndex"`
	Icon         string    `json:"icon" gorm:"not null"`
	Type         string    `json:"type" gorm:"not null;default:default"`
	Status       bool      `json:"status" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
