package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
	"github.com/proconnect/prowallet/internal/service/ledger"
)

type Config struct {
	// ClickFee is what one billable engagement costs the professional, cents
	ClickFee int64
}

// BillingService turns client engagement events into wallet debits, exactly
// once per (offer, client) pair.
type BillingService struct {
	clickFee int64
	storage  repository.Storage
	ledger   Ledger
}

// Ledger is the slice of the ledger service billing needs
type Ledger interface {
	GetOrCreateWallet(ctx context.Context, professionalID uuid.UUID) (models.Wallet, error)
	Record(ctx context.Context, storage repository.Storage, p ledger.RecordParams) (models.Transaction, error)
}

func NewService(cfg Config, storage repository.Storage, ledger Ledger) *BillingService {
	return &BillingService{
		clickFee: cfg.ClickFee,
		storage:  storage,
		ledger:   ledger,
	}
}

// RecordClick registers a client's engagement with an offer and charges the
// owning professional the click fee.
//
// Idempotent per (offer, client): a repeat call, including a page reload or a
// concurrent duplicate request, returns the original event and charges
// nothing. The dedup point is the unique constraint on the click_events pair,
// not an application lock: the race loser adopts the winner's row.
//
// The event insert, the debit and marking the offer viewed commit as one unit;
// the wallet is allowed to go negative rather than blocking the engagement.
func (s *BillingService) RecordClick(ctx context.Context, offerID, clientID uuid.UUID) (models.ClickEvent, error) {
	var event models.ClickEvent

	offer, err := s.storage.Offers().GetByID(ctx, offerID)
	if err != nil {
		return event, err
	}

	// Fast path: this pair was billed before, nothing to charge
	event, err = s.storage.ClickEvents().GetByOfferClient(ctx, offerID, clientID)
	switch {
	case err == nil:
		return event, nil
	case errors.Is(err, apperrors.ErrClickEventNotFound):
	default:
		return event, err
	}

	wallet, err := s.ledger.GetOrCreateWallet(ctx, offer.ProfessionalID)
	if err != nil {
		return event, err
	}

	err = s.storage.InTx(ctx, func(txStorage repository.Storage) error {
		var created bool
		event, created, err = txStorage.ClickEvents().Create(ctx, models.ClickEvent{
			OfferID:        offerID,
			ClientID:       clientID,
			ProfessionalID: offer.ProfessionalID,
			ClickedAt:      time.Now(),
		})
		if err != nil {
			return err
		}

		// Lost the insert race: the pair is already billed, keep the
		// winner's event and leave the wallet alone.
		if !created {
			return nil
		}

		tr, err := s.ledger.Record(ctx, txStorage, ledger.RecordParams{
			WalletID:    wallet.ID,
			Amount:      -s.clickFee,
			Type:        models.TransactionTypeDebit,
			Description: fmt.Sprintf("click fee for offer %s", offer.ID),
		})
		if err != nil {
			return err
		}

		if err := txStorage.ClickEvents().SetTransactionID(ctx, event.ID, tr.ID); err != nil {
			return err
		}
		event.TransactionID = &tr.ID

		return txStorage.Offers().MarkViewed(ctx, offer.ID)
	})
	if err != nil {
		return event, fmt.Errorf("can't bill click on offer %s by client %s: %w", offerID, clientID, err)
	}

	return event, nil
}
