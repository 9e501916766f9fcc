package application

import (
	"sync"
	"time"

	"github.com/viralforge/storefront/internal/ports"
)

type Service struct {
	cfg       Config
	users     ports.UserRepository
	sessions  ports.SessionRepository
	products  ports.ProductRepository
	orders    ports.OrderRepository
	analytics ports.AnalyticsReader
	lockouts  ports.LockoutStore
	hasher    ports.PasswordHasher
	tokens    ports.SessionTokens
	nowFn     func() time.Time

	// decoyHash is compared against on unknown-email logins so they cost one bcrypt run.
	decoyOnce sync.Once
	decoyHash string
}

// Dependencies wires the service. Lockouts may be nil, which disables login throttling.
type Dependencies struct {
	Config    Config
	Users     ports.UserRepository
	Sessions  ports.SessionRepository
	Products  ports.ProductRepository
	Orders    ports.OrderRepository
	Analytics ports.AnalyticsReader
	Lockouts  ports.LockoutStore
	Hasher    ports.PasswordHasher
	Tokens    ports.SessionTokens
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:       deps.Config,
		users:     deps.Users,
		sessions:  deps.Sessions,
		products:  deps.Products,
		orders:    deps.Orders,
		analytics: deps.Analytics,
		lockouts:  deps.Lockouts,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// SessionConfig exposes the immutable cookie settings to transport adapters.
func (s *Service) SessionConfig() SessionConfig {
	return s.cfg.Session
}
