// Command settle_transfer reconciles a manual bank transfer: given the invoice
// number printed on the transfer and the payment reference quoted by the
// customer, it verifies the pair matches and settles the invoice.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zaida-dev/backend-hospeda/internal/store"
)

func main() {
	invoiceNumber := flag.String("invoice", "", "invoice number (e.g. FT-2026-ABCDEF1234)")
	reference := flag.String("reference", "", "payment reference quoted in the transfer (e.g. PP-...)")
	flag.Parse()

	if *invoiceNumber == "" || *reference == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	st := store.New(pool)

	invoice, err := st.GetInvoiceByNumber(ctx, *invoiceNumber)
	if err != nil {
		log.Fatalf("load invoice %s: %v", *invoiceNumber, err)
	}
	payment, err := st.GetPaymentByReference(ctx, *reference)
	if err != nil {
		log.Fatalf("load payment %s: %v", *reference, err)
	}
	if payment.InvoiceID != invoice.ID {
		log.Fatalf("payment %s belongs to a different invoice", *reference)
	}
	if payment.Method != store.MethodBankTransfer {
		log.Fatalf("payment %s is not a bank transfer (method %s)", *reference, payment.Method)
	}
	if payment.Amount != invoice.Amount {
		log.Fatalf("amount mismatch: payment %d vs invoice %d", payment.Amount, invoice.Amount)
	}

	result, err := st.SettleGatewayPayment(ctx, *reference)
	if err != nil {
		log.Fatalf("settle payment %s: %v", *reference, err)
	}
	log.Printf("invoice %s settled (%d %s), order %s marked paid",
		result.Invoice.Number, result.Invoice.Amount, result.Invoice.Currency, result.Invoice.OrderID)
}
