package models

import (
	"time"

	"github.com/crypto-dashboard/internal/types"
)

// ProfileForm is the profile part of the settings form
type ProfileForm struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Country        string `json:"country"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

// PaymentMethodForm is a payment method as edited on the settings page.
// ID is a page-local handle, not the backend identifier.
type PaymentMethodForm struct {
	ID        int64                   `json:"id"`
	Type      types.PaymentMethodType `json:"type"`
	Name      string                  `json:"name"`
	IsDefault bool                    `json:"isDefault"`
	Verified  bool                    `json:"verified"`
	AddedDate string                  `json:"addedDate"`
}

// FormSnapshot is the backup blob mirrored to the snapshot store on every
// save. Every field is optional on read so that partial or older blobs
// still apply. PaymentMethods is always written so that an emptied list
// survives the round trip.
type FormSnapshot struct {
	Theme            *types.Theme             `json:"theme,omitempty"`
	ColorScheme      *types.ColorScheme       `json:"colorScheme,omitempty"`
	Notifications    *NotificationPreferences `json:"notifications,omitempty"`
	Language         *string                  `json:"language,omitempty"`
	Currency         *string                  `json:"currency,omitempty"`
	TwoFactorEnabled *bool                    `json:"twoFactorEnabled,omitempty"`
	AccountActivity  *bool                    `json:"accountActivity,omitempty"`
	TradingActivity  *bool                    `json:"tradingActivity,omitempty"`
	FormData         *ProfileForm             `json:"formData,omitempty"`
	SecuritySettings *SecurityPreferences     `json:"securitySettings,omitempty"`
	PaymentMethods   []PaymentMethodForm      `json:"paymentMethods"`
	SavedAt          *time.Time               `json:"savedAt,omitempty"`
}
