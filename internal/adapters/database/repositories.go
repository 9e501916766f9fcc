package database

import (
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Users     ports.UserRepository
	Sessions  ports.SessionRepository
	Products  ports.ProductRepository
	Orders    ports.OrderRepository
	Outbox    ports.OutboxRepository
	Analytics ports.AnalyticsReader
}

func NewRepositories(db *gorm.DB) (Repositories, error) {
	analytics, err := newAnalyticsRepository(db)
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{
		Users:     &userRepository{db: db},
		Sessions:  &sessionRepository{db: db},
		Products:  &productRepository{db: db},
		Orders:    &orderRepository{db: db},
		Outbox:    &outboxRepository{db: db},
		Analytics: analytics,
	}, nil
}
