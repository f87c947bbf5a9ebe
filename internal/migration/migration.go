package migration

import (
	"errors"

	conversationdomain "github.com/polisbot/polisbot/internal/conversation/domain"
	paymentdomain "github.com/polisbot/polisbot/internal/payment/domain"
	productdomain "github.com/polisbot/polisbot/internal/product/domain"
	quotedomain "github.com/polisbot/polisbot/internal/quote/domain"
	userdomain "github.com/polisbot/polisbot/internal/user/domain"
	"gorm.io/gorm"
)

// RunMigrations creates the schema on startup so the service is usable out
// of the box on any supported dialect.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&userdomain.User{},
		&productdomain.Product{},
		&conversationdomain.Conversation{},
		&conversationdomain.Turn{},
		&quotedomain.Quote{},
		&paymentdomain.EventRecord{},
	)
}
