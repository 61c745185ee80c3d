package shop

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMappingError_IsErrMapping(t *testing.T) {
	err := fmt.Errorf("read stores: %w", &MappingError{Entity: "store", Column: "name", Reason: "missing column"})

	assert.True(t, errors.Is(err, ErrMapping))
	assert.Contains(t, err.Error(), `column "name"`)

	var me *MappingError
	assert.True(t, errors.As(err, &me))
	assert.Equal(t, "store", me.Entity)
}

func TestCascadeError_Partial(t *testing.T) {
	cause := errors.New("disk full")
	err := &CascadeError{
		Entity:    "store",
		ID:        1,
		Step:      "products",
		Completed: []string{"product_orders"},
		Err:       cause,
	}

	assert.True(t, IsPartialCascade(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "completed: product_orders")
}

func TestCascadeError_RolledBackIsNotPartial(t *testing.T) {
	err := &CascadeError{
		Entity:     "store",
		ID:         1,
		Step:       "store_orders",
		Completed:  []string{"product_orders", "products"},
		RolledBack: true,
		Err:        errors.New("boom"),
	}

	assert.False(t, IsPartialCascade(err))
	assert.Contains(t, err.Error(), "rolled back")
}

func TestCascadeError_FirstStepFailureIsClean(t *testing.T) {
	err := &CascadeError{Entity: "product", ID: 3, Step: "product_orders", Err: errors.New("boom")}

	assert.False(t, IsPartialCascade(err))
	assert.Contains(t, err.Error(), "nothing removed")
}

func TestProductOrder_InCart(t *testing.T) {
	assert.True(t, ProductOrder{StoreOrderID: 0}.InCart())
	assert.False(t, ProductOrder{StoreOrderID: 4}.InCart())
}
