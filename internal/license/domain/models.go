package domain

import (
	"time"

	"github.com/actorhub/actorhub/internal/rules"
	"github.com/google/uuid"
)

type UsageType string

const (
	UsagePersonal    UsageType = "PERSONAL"
	UsageCommercial  UsageType = "COMMERCIAL"
	UsageEditorial   UsageType = "EDITORIAL"
	UsageEducational UsageType = "EDUCATIONAL"
)

type LicenseType string

const (
	LicenseSingleUse    LicenseType = "SINGLE_USE"
	LicenseSubscription LicenseType = "SUBSCRIPTION"
	LicenseUnlimited    LicenseType = "UNLIMITED"
	LicenseCustom       LicenseType = "CUSTOM"
)

var (
	UsageTypes   = rules.NewEnum("licenses_usage_type", UsagePersonal, UsageCommercial, UsageEditorial, UsageEducational)
	LicenseTypes = rules.NewEnum("licenses_license_type", LicenseSingleUse, LicenseSubscription, LicenseUnlimited, LicenseCustom)
)

const DefaultPlatformFeePercent float64 = 20

// License grants a licensee the use of an identity. The identity, listing and
// licensee references survive deletion of their targets as nulls.
type License struct {
	ID                 uuid.UUID           `json:"id" gorm:"primaryKey"`
	IdentityID         *uuid.UUID          `json:"identity_id,omitempty"`
	ListingID          *uuid.UUID          `json:"listing_id,omitempty"`
	LicenseeID         *uuid.UUID          `json:"licensee_id,omitempty"`
	UsageType          UsageType           `json:"usage_type" gorm:"type:text;not null"`
	LicenseType        LicenseType         `json:"license_type" gorm:"type:text;not null"`
	PriceUSD           float64             `json:"price_usd" gorm:"column:price_usd;not null"`
	CreatorPayoutUSD   *float64            `json:"creator_payout_usd,omitempty" gorm:"column:creator_payout_usd"`
	PlatformFeePercent float64             `json:"platform_fee_percent" gorm:"not null"`
	MaxOutputs         *int64              `json:"max_outputs,omitempty"`
	CurrentUses        int64               `json:"current_uses" gorm:"not null"`
	MaxImpressions     *int64              `json:"max_impressions,omitempty"`
	CurrentImpressions int64               `json:"current_impressions" gorm:"not null"`
	PaymentStatus      rules.PaymentStatus `json:"payment_status" gorm:"type:text;not null"`
	IsActive           bool                `json:"is_active" gorm:"not null"`
	ValidFrom          time.Time           `json:"valid_from" gorm:"not null"`
	ValidUntil         *time.Time          `json:"valid_until,omitempty"`
	CreatedAt          time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"not null"`
}

func (License) TableName() string { return "licenses" }

// CreatorRevenue is the amount credited to the identity once payment completes.
func (l License) CreatorRevenue() float64 {
	if l.CreatorPayoutUSD == nil {
		return 0
	}
	return *l.CreatorPayoutUSD
}

// Validate checks the value bounds and enumerations of the row.
func (l License) Validate() error {
	v := rules.Validate("licenses").
		Check(UsageTypes.Validate(l.UsageType)).
		Check(LicenseTypes.Validate(l.LicenseType)).
		Check(rules.PaymentMachine.Validate(l.PaymentStatus)).
		NonNegative("price_usd", l.PriceUSD)
	if l.CreatorPayoutUSD != nil {
		v.NonNegative("creator_payout_usd", *l.CreatorPayoutUSD).
			AtMost("creator_payout_usd", *l.CreatorPayoutUSD, "price_usd", l.PriceUSD)
	}
	v.Between("platform_fee_percent", l.PlatformFeePercent, 0, 100).
		NonNegativeInt("current_uses", l.CurrentUses).
		NonNegativeInt("current_impressions", l.CurrentImpressions)
	if l.MaxOutputs != nil {
		v.NonNegativeInt("max_outputs", *l.MaxOutputs)
	}
	if l.MaxImpressions != nil {
		v.NonNegativeInt("max_impressions", *l.MaxImpressions)
	}
	if l.ValidUntil != nil {
		v.NotBefore("valid_until", *l.ValidUntil, "valid_from", l.ValidFrom)
	}
	return v.Err()
}

// CheckUsage refuses usage counters beyond their configured maxima.
func (l License) CheckUsage() error {
	if l.MaxOutputs != nil && l.CurrentUses > *l.MaxOutputs {
		return rules.UsageLimitExceeded(l.CurrentUses, *l.MaxOutputs)
	}
	if l.MaxImpressions != nil && l.CurrentImpressions > *l.MaxImpressions {
		return rules.UsageLimitExceeded(l.CurrentImpressions, *l.MaxImpressions)
	}
	return nil
}
