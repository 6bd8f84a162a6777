package models

import "time"

// Setting is one config store entry. Value holds the JSON encoding of the
// stored value.
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }
