package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"incoin_webapp/internal/config"
	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/repository"
	"incoin_webapp/internal/service"
	"incoin_webapp/internal/store"
)

func main() {
	username := flag.String("username", "testuser", "username to register or log in")
	ref := flag.String("ref", "", "referral code of the inviting user")
	topUp := flag.String("topup", "", "INCOIN amount to deposit after login")
	flag.Parse()

	cfg := config.MustLoad()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.StoreBackend, store.Options{
		Namespace:     cfg.StoreNamespace,
		DatabaseURL:   cfg.DatabaseURL,
		MaxConns:      cfg.DBMaxConns,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	repo := repository.NewAccountRepository(st)
	sessions := service.NewSessionService(repo, repository.NewHistoryRepository(st), nil)

	// try to log in first, register if the name is free
	p, err := sessions.Login(ctx, *username)
	if errors.Is(err, domain.ErrUserNotFound) {
		p, err = sessions.Register(ctx, *username, *ref)
		if err == nil {
			log.Printf("user created id=%s referral_code=%s\n", p.ID, p.ReferralCode)
		}
	} else if err == nil {
		log.Printf("user already exists id=%s\n", p.ID)
	}
	if err != nil {
		log.Fatalf("seed user failed: %v", err)
	}

	if *topUp != "" {
		res, err := service.NewEconomyService(repo).TopUp(ctx, p.ID, *topUp, string(domain.CurrencyINCOIN))
		if err != nil {
			log.Fatalf("top up failed: %v", err)
		}
		log.Printf("balance INCOIN=%s\n", res.User.Balances.Get(domain.CurrencyINCOIN))
	}

	token, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL).Issue(p.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
