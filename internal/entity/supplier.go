package entity

import "time"

// Supplier 供应商
type Supplier struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	NIT           string    `json:"nit,omitempty" gorm:"size:30;index"`
	Type          string    `json:"type,omitempty" gorm:"size:50"`
	PaymentInfo   string    `json:"payment_info,omitempty" gorm:"size:200"`
	Address       string    `json:"address,omitempty" gorm:"size:200"`
	Phone         string    `json:"phone,omitempty" gorm:"size:30"`
	Email         string    `json:"email,omitempty" gorm:"size:100"`
	ContactPerson string    `json:"contact_person,omitempty" gorm:"size:100"`
	Active        bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}
