package services

import (
	"context"
	"errors"
	"sync"

	"github.com/kc-allan/at-insurance/internal/models"

	"gorm.io/gorm"
)

// TransactionStore is the keyed storage for payment transactions.
// CheckoutRequestID is the primary reconciliation key; TransactionID is
// the secondary lookup used by the client-facing status API. Records are
// never deleted here; retention is an operational concern.
type TransactionStore interface {
	Put(ctx context.Context, tx *models.PaymentTransaction) error
	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.PaymentTransaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
}

// GormTransactionStore persists transactions in the relational database
type GormTransactionStore struct {
	db *gorm.DB
}

// NewGormTransactionStore creates a database-backed transaction store
func NewGormTransactionStore(db *gorm.DB) *GormTransactionStore {
	return &GormTransactionStore{db: db}
}

func (s *GormTransactionStore) Put(ctx context.Context, tx *models.PaymentTransaction) error {
	if tx.ID == 0 {
		return s.db.WithContext(ctx).Create(tx).Error
	}
	return s.db.WithContext(ctx).Save(tx).Error
}

func (s *GormTransactionStore) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *GormTransactionStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// MemoryTransactionStore keeps transactions in process memory. Used in
// tests and as a fallback when no database is configured.
type MemoryTransactionStore struct {
	mu         sync.RWMutex
	byCheckout map[string]*models.PaymentTransaction
	byTxnID    map[string]*models.PaymentTransaction
	nextID     uint
}

// NewMemoryTransactionStore creates an empty in-memory transaction store
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{
		byCheckout: make(map[string]*models.PaymentTransaction),
		byTxnID:    make(map[string]*models.PaymentTransaction),
	}
}

func (s *MemoryTransactionStore) Put(ctx context.Context, tx *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == 0 {
		s.nextID++
		tx.ID = s.nextID
	}

	clone := *tx
	if tx.CheckoutRequestID != "" {
		s.byCheckout[tx.CheckoutRequestID] = &clone
	}
	s.byTxnID[tx.TransactionID] = &clone
	return nil
}

func (s *MemoryTransactionStore) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byCheckout[checkoutRequestID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	clone := *tx
	return &clone, nil
}

func (s *MemoryTransactionStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byTxnID[transactionID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	clone := *tx
	return &clone, nil
}
