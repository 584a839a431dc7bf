package repositories

import (
	"database/sql"

	"gorm.io/gorm"
)

// GORMTxManager is a GORM implementation of TxManager.
type GORMTxManager struct {
	db *gorm.DB
}

// NewGORMTxManager creates a new instance of GORMTxManager.
func NewGORMTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{
		db: db,
	}
}

// InTx runs fn inside a single database transaction, with every repository
// bound to that transaction. On postgres the transaction is serializable, so
// two concurrent checkouts can never both observe sufficient stock for the
// same last unit. SQLite is single-writer and does not accept explicit
// isolation levels, so it runs with its defaults.
func (m *GORMTxManager) InTx(fn func(r Repos) error) error {
	run := func(tx *gorm.DB) error {
		return fn(Repos{
			Inventory: NewGORMInventoryRepository(tx),
			Orders:    NewGORMOrderRepository(tx),
			Carts:     NewGORMCartRepository(tx),
			Payments:  NewGORMPaymentRepository(tx),
		})
	}
	if m.db.Dialector.Name() == "postgres" {
		return m.db.Transaction(run, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}
	return m.db.Transaction(run)
}
