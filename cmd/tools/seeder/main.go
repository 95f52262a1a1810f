package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

type planSeed struct {
	Code        string
	Name        string
	ProductType string
	Family      string
	BasePrice   int64
	Description string
}

// Annual prices in kwanzas. Everything except domains discounts on the
// hosting table.
var plans = []planSeed{
	{"dominio-ao", "Domínio .ao", store.ProductDomain, "domain", 35_000, "Registo anual de domínio .ao"},
	{"dominio-co-ao", "Domínio .co.ao", store.ProductDomain, "domain", 25_000, "Registo anual de domínio .co.ao"},
	{"dominio-it-ao", "Domínio .it.ao", store.ProductDomain, "domain", 20_000, "Registo anual de domínio .it.ao"},
	{"hospedagem-base", "Hospedagem Base", store.ProductHosting, "hosting", 12_000, "1 site, 5 GB SSD, SSL incluído"},
	{"hospedagem-pro", "Hospedagem Pro", store.ProductHosting, "hosting", 28_000, "Sites ilimitados, 25 GB SSD, SSL incluído"},
	{"email-profissional", "Email Profissional", store.ProductEmail, "hosting", 9_000, "Caixas de correio no seu domínio"},
	{"office365-business", "Office 365 Business", store.ProductOffice365, "hosting", 45_000, "Licença anual Office 365 Business"},
	{"servidor-dedicado", "Servidor Dedicado", store.ProductDedicatedServer, "hosting", 480_000, "Xeon 8 núcleos, 32 GB RAM, 2×1 TB"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	st := store.New(pool)
	for _, p := range plans {
		_, err := st.UpsertPlan(ctx, store.PlanParams{
			Code:        p.Code,
			Name:        p.Name,
			ProductType: p.ProductType,
			Family:      p.Family,
			BasePrice:   p.BasePrice,
			Description: pgtype.Text{String: p.Description, Valid: p.Description != ""},
		})
		if err != nil {
			log.Fatalf("seed plan %s: %v", p.Code, err)
		}
		log.Printf("seeded plan %s (%s, %d Kz/ano)", p.Code, p.ProductType, p.BasePrice)
	}

	log.Println("catalog seeding completed")
}
