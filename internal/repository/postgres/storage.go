package postgres

import (
	"context"
	"fmt"

	"github.com/proconnect/prowallet/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Wallets() repository.WalletRepo {
	return &WalletRepo{DB: s.db}
}

func (s *Storage) Transactions() repository.TransactionRepo {
	return &TransactionRepo{DB: s.db}
}

func (s *Storage) ClickEvents() repository.ClickEventRepo {
	return &ClickEventRepo{DB: s.db}
}

func (s *Storage) Offers() repository.OfferRepo {
	return &OfferRepo{DB: s.db}
}

func (s *Storage) Professionals() repository.ProfessionalRepo {
	return &ProfessionalRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
