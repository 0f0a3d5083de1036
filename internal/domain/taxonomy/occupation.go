package taxonomy

import "time"

// Occupation is one standardized occupation from the external catalog,
// keyed by its catalog code (e.g. "15-1252.00").
type Occupation struct {
	Code        string    `gorm:"column:code;primaryKey" json:"code"`
	Title       string    `gorm:"column:title;not null;index" json:"title"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Occupation) TableName() string { return "occupation" }
