package repositories

// Repos bundles the repositories bound to a single transaction. Everything
// touched through a Repos inside TxManager.InTx commits or rolls back as one
// unit.
type Repos struct {
	Inventory InventoryRepository
	Orders    OrderRepository
	Carts     CartRepository
	Payments  PaymentRepository
}

// TxManager runs a function inside one atomic transaction. The checkout
// orchestrator uses it for reserve-inventory + create-order + clear-cart, and
// the webhook service for record-payment + consume-inventory + mark-paid.
// Any error returned by fn rolls the whole transaction back.
type TxManager interface {
	InTx(fn func(r Repos) error) error
}
