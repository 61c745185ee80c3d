package store

// Table describes one persisted entity table.
type Table struct {
	Name    string
	Columns []string
	// Key is the primary key, also the Select ordering.
	Key []string
	// Unique lists additional single-column unique constraints.
	Unique []string
}

var (
	Users = Table{
		Name:    "users",
		Columns: []string{"id", "username", "password_hash"},
		Key:     []string{"id"},
		Unique:  []string{"username"},
	}

	Stores = Table{
		Name:    "stores",
		Columns: []string{"id", "name", "address", "city", "state"},
		Key:     []string{"id"},
	}

	// Products are keyed by (store_id, id): a product ID is unique within its store.
	Products = Table{
		Name:    "products",
		Columns: []string{"store_id", "id", "name", "description", "price", "quantity"},
		Key:     []string{"store_id", "id"},
	}

	StoreOrders = Table{
		Name: "store_orders",
		Columns: []string{
			"id", "user_id", "user_name", "reference_id", "store_id",
			"curr_date", "date_seconds", "total_amount",
		},
		Key: []string{"id"},
	}

	ProductOrders = Table{
		Name: "product_orders",
		Columns: []string{
			"id", "user_id", "store_id", "store_order_id", "user_order_id",
			"product_id", "item_name", "total_price", "quantity",
		},
		Key: []string{"id"},
	}
)

// Tables lists every table in dependency order: parents before children.
var Tables = []Table{Users, Stores, Products, StoreOrders, ProductOrders}

// HasColumn reports whether the table defines column.
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}
