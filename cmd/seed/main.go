// Command seed loads demo accounts and transactions so the dashboard has
// something to show. Safe to re-run: accounts upsert by name, and
// transactions are only inserted when the table is empty.
package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/config"
	"fintrack/internal/domain"
	"fintrack/internal/logger"
	"fintrack/internal/postgres"
)

type seedTransaction struct {
	daysAgo  int
	amount   string
	merchant string
	category string
	notes    string
	status   domain.Status
}

var seedTransactions = []seedTransaction{
	{1, "10.00", "Corner Coffee", "Dining", "morning latte", domain.StatusPending},
	{2, "20.00", "City Grocer", "Groceries", "weekly shop", domain.StatusPending},
	{3, "30.00", "Metro Transit", "Transportation", "monthly pass top-up", domain.StatusPending},
	{4, "54.10", "Power & Light Co", "Bills & Utilities", "electricity bill", domain.StatusApproved},
	{6, "12.99", "StreamFlix", "Entertainment", "subscription", domain.StatusApproved},
	{8, "87.25", "City Grocer", "Groceries", "", domain.StatusApproved},
	{9, "249.99", "Gadget World", "Shopping", "noise cancelling headphones", domain.StatusDeclined},
	{12, "15.50", "Corner Coffee", "Dining", "lunch with team", domain.StatusApproved},
	{15, "62.30", "Gas & Go", "Transportation", "fuel", domain.StatusApproved},
	{20, "135.00", "Dr Chen Dental", "Bills & Utilities", "checkup copay", domain.StatusApproved},
}

func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	accounts := postgres.NewAccountStore(db)
	transactions := postgres.NewTransactionStore(db)

	checkingID, err := accounts.Upsert(ctx, domain.Account{
		AccountName:    "Everyday Checking",
		CurrentBalance: decimal.RequireFromString("2450.75"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed checking account")
	}

	if _, err := accounts.Upsert(ctx, domain.Account{
		AccountName:    "Rainy Day Savings",
		CurrentBalance: decimal.RequireFromString("10200.00"),
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed savings account")
	}

	existing, err := transactions.ListByStatus(ctx, domain.StatusPending, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check existing transactions")
	}
	if len(existing) > 0 {
		log.Info().Msg("Transactions already present, skipping transaction seed")
		return
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	for _, st := range seedTransactions {
		id, err := transactions.Insert(ctx, domain.Transaction{
			Date:      now.AddDate(0, 0, -st.daysAgo),
			Amount:    decimal.RequireFromString(st.amount),
			Merchant:  st.merchant,
			Category:  st.category,
			Notes:     st.notes,
			Status:    st.status,
			AccountID: checkingID,
		})
		if err != nil {
			log.Fatal().Err(err).Str("merchant", st.merchant).Msg("Failed to seed transaction")
		}
		log.Info().Int64("transaction_id", id).Str("merchant", st.merchant).
			Str("status", string(st.status)).Msg("Seeded transaction")
	}

	log.Info().Int("count", len(seedTransactions)).Msg("Seed complete")
}
