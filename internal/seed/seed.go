package seed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	"gorm.io/gorm"
)

const motorTypeTag = "motor"

// EnsureMotorProduct seeds the motor insurance product so a fresh install
// can quote out of the box.
func EnsureMotorProduct(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing productdomain.Product
		err := tx.WithContext(ctx).Where("type_tag = ?", motorTypeTag).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		keywords, err := json.Marshal([]string{"car insurance", "motor insurance", "vehicle insurance", "asuransi mobil"})
		if err != nil {
			return err
		}
		requiredFields, err := json.Marshal([]productdomain.RequiredField{
			{Key: "driverAge", Prompt: "How old is the main driver?", Kind: "number", Required: true},
			{Key: "carYear", Prompt: "What year was the car manufactured?", Kind: "number", Required: true},
		})
		if err != nil {
			return err
		}
		ruleSet, err := json.Marshal(map[string]any{
			"base": 60000,
			"factors": []map[string]any{
				{"key": "driverAge", "op": "lt", "value": 25, "effect": "multiply", "magnitude": 1.4},
				{"key": "carYear", "op": "lt", "value": 2010, "effect": "add", "magnitude": 10000},
			},
		})
		if err != nil {
			return err
		}

		return tx.WithContext(ctx).Create(&productdomain.Product{
			ID:             node.Generate(),
			TypeTag:        motorTypeTag,
			Name:           "Motor Insurance",
			Active:         true,
			Keywords:       keywords,
			RequiredFields: requiredFields,
			RuleSet:        ruleSet,
		}).Error
	})
}
