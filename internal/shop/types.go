package shop

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxInt is the largest id or quantity a row can hold. Integer columns are
// 32-bit in every supported database.
const MaxInt = math.MaxInt32

// User is a registered customer. PasswordHash is a bcrypt hash, never the
// plaintext password.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Store is a physical branch together with its inventory and orders.
type Store struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Products    []Product    `json:"products"`
	StoreOrders []StoreOrder `json:"storeOrders"`
}

// Product is an inventory item of a store. ID is unique within the store.
type Product struct {
	ID          int             `json:"id"`
	StoreID     int             `json:"storeID"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// StoreOrder is a checked-out order placed by a user at one store.
type StoreOrder struct {
	ID            int             `json:"id"`
	UserID        int             `json:"userID"`
	UserName      string          `json:"userName"`
	ReferenceID   string          `json:"referenceID"`
	StoreID       int             `json:"storeID"`
	CurrDate      time.Time       `json:"currDate"`
	DateSeconds   int64           `json:"dateSeconds"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ProductOrders []ProductOrder  `json:"productOrders"`
}

// ProductOrder is one line of an order. A zero StoreOrderID marks a cart line
// that has not been checked out yet.
type ProductOrder struct {
	ID           int             `json:"id"`
	UserID       int             `json:"userID"`
	StoreID      int             `json:"storeID"`
	StoreOrderID int             `json:"storeOrderID"`
	UserOrderID  int             `json:"userOrderID"`
	ProductID    int             `json:"productID"`
	ItemName     string          `json:"itemName"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Quantity     int             `json:"quantity"`
}

// InCart reports whether the line is still an uncommitted cart line.
func (p ProductOrder) InCart() bool {
	return p.StoreOrderID == 0
}
