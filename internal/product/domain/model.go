package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/polisbot/polisbot/internal/pricing"
	"gorm.io/datatypes"
)

// Product is an insurance product definition: the input schema the dialogue
// collects and the rule set that prices it. Seeded administratively, read-only
// to the conversation flow.
type Product struct {
	ID             snowflake.ID   `json:"id" gorm:"primaryKey"`
	TypeTag        string         `json:"type_tag" gorm:"type:text;not null;uniqueIndex:ux_products_type_tag"`
	Name           string         `json:"name" gorm:"type:text;not null"`
	Active         bool           `json:"active" gorm:"not null;default:true"`
	Keywords       datatypes.JSON `json:"keywords,omitempty" gorm:"type:jsonb"`
	RequiredFields datatypes.JSON `json:"required_fields" gorm:"type:jsonb;not null"`
	RuleSet        datatypes.JSON `json:"rule_set" gorm:"type:jsonb;not null"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// RequiredField is one input the dialogue must collect before pricing.
type RequiredField struct {
	Key      string       `json:"key"`
	Prompt   string       `json:"prompt"`
	Kind     pricing.Kind `json:"kind"`
	Required bool         `json:"required"`
}

// RequiredFieldList decodes the stored input schema.
func (p *Product) RequiredFieldList() ([]RequiredField, error) {
	var fields []RequiredField
	if len(p.RequiredFields) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(p.RequiredFields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// PricingRules decodes and validates the stored rule set.
func (p *Product) PricingRules() (pricing.RuleSet, error) {
	return pricing.DecodeRuleSet(p.RuleSet)
}

// KeywordList decodes the conversation-start keywords. A malformed column
// yields no keywords rather than an error; matching is best-effort.
func (p *Product) KeywordList() []string {
	var keywords []string
	if len(p.Keywords) == 0 {
		return nil
	}
	if err := json.Unmarshal(p.Keywords, &keywords); err != nil {
		return nil
	}
	return keywords
}
