package main

import (
	"context"
	"fmt"
	"os"

	"admarket/internal/config"
	"admarket/internal/database"
	"admarket/internal/domain"
	"admarket/internal/logger"
	jwtsvc "admarket/internal/pkg/jwt"
	"admarket/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	email    string
	password string
	name     string
	company  string
	role     domain.UserRole
}

var users = []seedUser{
	{email: "admin@admarket.local", password: "admin123", name: "Administrator", role: domain.RoleAdmin},
	{email: "moderator@admarket.local", password: "moderator123", name: "Moderator", role: domain.RoleModerator},
	{email: "advertiser@admarket.local", password: "advertiser123", name: "Demo Advertiser", company: "Acme Ads", role: domain.RoleAdvertiser},
}

var placements = []domain.Placement{
	{PlacementName: "Homepage Banner", PlacementCode: "HOME_TOP", Dimensions: "728x90", BasePricePerDay: decimal.RequireFromString("50.00"), IsPremium: true},
	{PlacementName: "Sidebar", PlacementCode: "SIDEBAR", Dimensions: "300x250", BasePricePerDay: decimal.RequireFromString("20.00")},
	{PlacementName: "Article Footer", PlacementCode: "ARTICLE_FOOTER", Dimensions: "970x250", BasePricePerDay: decimal.RequireFromString("12.50")},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(&cfg.Logger)

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate failed")
	}

	ctx := context.Background()
	store := repository.NewStore(db)
	tokens := jwtsvc.New(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	log.Info("creating users")
	var advertiser *domain.User
	for _, su := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			log.WithError(err).Fatal("hash password")
		}
		u := &domain.User{Email: su.email, PasswordHash: string(hash), Name: su.name, CompanyName: su.company, Role: su.role}
		if err := store.Users.Upsert(ctx, u); err != nil {
			log.WithError(err).WithField("email", su.email).Fatal("upsert user")
		}
		if u.Role == domain.RoleAdvertiser {
			advertiser = u
		}

		token, err := tokens.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.WithError(err).Fatal("generate token")
		}
		fmt.Printf("%-28s %-10s %s\n", u.Email, u.Role, token)
	}

	log.Info("creating placements")
	for _, p := range placements {
		p.IsActive = true
		p.MaxFileSizeMB = 10
		p.MaxConcurrentAds = 1
		if err := db.WithContext(ctx).Where(domain.Placement{PlacementCode: p.PlacementCode}).Attrs(p).FirstOrCreate(&p).Error; err != nil {
			log.WithError(err).WithField("code", p.PlacementCode).Fatal("seed placement")
		}
	}

	log.Info("creating approved ad")
	demo := domain.Ad{
		AdvertiserID:     advertiser.ID,
		Title:            "Spring Sale",
		ShortDescription: "Up to 40% off",
		CallToAction:     "Shop now",
		WebsiteURL:       "https://example.com/spring",
		Status:           domain.AdApproved,
	}
	if err := db.WithContext(ctx).Where(domain.Ad{AdvertiserID: advertiser.ID, Title: demo.Title}).Attrs(demo).FirstOrCreate(&demo).Error; err != nil {
		log.WithError(err).Fatal("seed ad")
	}

	log.WithField("ad_id", demo.ID).Info("seed completed")
}
