package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

type seedAccount struct {
	email    string
	password string
	role     domain.Role
	// forceRole re-applies role to an existing account with the same email.
	forceRole bool
}

var seedAccounts = []seedAccount{
	{email: "admin@example.com", password: "admin12345", role: domain.RoleAdmin, forceRole: true},
	{email: "demo@example.com", password: "demo12345", role: domain.RoleCustomer},
}

type seedProduct struct {
	name        string
	description string
	priceCents  int64
	stock       int
}

var sampleCatalog = []seedProduct{
	{"Plain T-Shirt", "Soft cotton tee. Unisex fit.", 1999, 50},
	{"Sticker Pack", "Set of 5 vinyl stickers.", 499, 200},
	{"Mug", "White ceramic mug, 12 oz.", 1299, 30},
	{"Tote Bag", "Canvas tote with inner pocket.", 2499, 25},
	{"Notebook", "A5 ruled notebook, 80 pages.", 899, 100},
	{"Baseball Cap", "Adjustable cotton cap.", 1599, 40},
	{"Hoodie", "Comfortable pullover hoodie.", 3999, 20},
	{"Water Bottle", "Insulated stainless steel bottle.", 2199, 60},
	{"Keychain", "Metal keychain with logo.", 799, 150},
	{"Socks", "Pack of 3 pairs of cotton socks.", 1299, 80},
	{"Phone Case", "Durable case for smartphones.", 1999, 70},
	{"Beanie", "Warm knit beanie.", 1499, 35},
	{"Poster", "High-quality art print poster.", 999, 120},
	{"Laptop Sleeve", "Protective sleeve for laptops.", 2599, 45},
	{"Mouse Pad", "Smooth surface mouse pad.", 699, 90},
	{"Backpack", "Durable backpack with multiple compartments.", 4999, 15},
	{"Sunglasses", "Stylish UV protection sunglasses.", 2999, 55},
	{"Wallet", "Leather bifold wallet.", 3499, 40},
	{"Desk Organizer", "Keep your desk tidy with this organizer.", 1799, 70},
	{"Travel Mug", "Leak-proof travel mug.", 2199, 50},
}

// Seed upserts the admin and demo accounts and fills an empty catalog. Safe to rerun.
func (s *Service) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	now := s.nowFn()

	for _, account := range seedAccounts {
		hash, err := s.hasher.Hash(account.password)
		if err != nil {
			return report, fmt.Errorf("hash seed password: %w", err)
		}
		user, err := s.users.UpsertByEmail(ctx, ports.CreateUserParams{
			Email:        account.email,
			PasswordHash: hash,
			Role:         account.role,
			CreatedAt:    now,
		}, account.forceRole)
		if err != nil {
			return report, fmt.Errorf("seed user %s: %w", account.email, err)
		}
		report.Users = append(report.Users, user.Email)
	}

	existing, err := s.products.Count(ctx, domain.ProductFilter{})
	if err != nil {
		return report, fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		return report, nil
	}

	products := make([]domain.Product, 0, len(sampleCatalog))
	for i, p := range sampleCatalog {
		description := p.description
		// Spread creation times so "newest first" is deterministic.
		createdAt := now.Add(time.Duration(i) * time.Millisecond)
		products = append(products, domain.Product{
			ProductID:     uuid.New(),
			Name:          p.name,
			Description:   &description,
			PriceCents:    p.priceCents,
			StockQuantity: p.stock,
			IsActive:      true,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		})
	}
	if err := s.products.CreateMany(ctx, products); err != nil {
		return report, fmt.Errorf("seed products: %w", err)
	}
	report.ProductsCreated = len(products)
	return report, nil
}
