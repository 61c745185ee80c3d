package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/repo"
	"github.com/roach88/storefront/internal/shop"
)

type storeRequest struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type productRequest struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type editProductRequest struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type storeOrderRequest struct {
	ID          int             `json:"id"`
	UserID      int             `json:"userID"`
	UserName    string          `json:"userName"`
	ReferenceID string          `json:"referenceID"`
	CurrDate    time.Time       `json:"currDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (s *Server) listStores(w http.ResponseWriter, r *http.Request) error {
	stores, err := s.repo.GetAllStores(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(stores))
}

func (s *Server) createStore(w http.ResponseWriter, r *http.Request) error {
	var req storeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	err := s.repo.AddStore(r.Context(), shop.Store{
		ID:      req.ID,
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		return err
	}
	st, err := s.repo.GetStoreByID(r.Context(), req.ID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, st)
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	st, err := s.repo.GetStoreByID(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteStore(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	if err := s.repo.DeleteStore(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) error {
	id, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	st, err := s.repo.GetStoreByID(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(st.Products))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) error {
	storeID, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	err = s.repo.AddProduct(r.Context(), storeID, shop.Product{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return err
	}
	p, err := s.repo.GetProductByID(r.Context(), storeID, req.ID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) error {
	storeID, productID, err := productPath(r)
	if err != nil {
		return err
	}
	p, err := s.repo.GetProductByID(r.Context(), storeID, productID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) editProduct(w http.ResponseWriter, r *http.Request) error {
	storeID, productID, err := productPath(r)
	if err != nil {
		return err
	}
	var req editProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if err := s.repo.EditProduct(r.Context(), storeID, productID, req.Description, req.Price, req.Quantity); err != nil {
		return err
	}
	p, err := s.repo.GetProductByID(r.Context(), storeID, productID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	storeID, productID, err := productPath(r)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(r.Context(), storeID, productID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listStoreOrders(w http.ResponseWriter, r *http.Request) error {
	storeID, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	by, err := repo.ParseOrderSort(r.URL.Query().Get("sort"))
	if err != nil {
		return err
	}
	orders, err := s.repo.GetStoreOrdersForStore(r.Context(), storeID, by)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(orders))
}

func (s *Server) createStoreOrder(w http.ResponseWriter, r *http.Request) error {
	storeID, err := pathInt(r, "storeID")
	if err != nil {
		return err
	}
	var req storeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	so, err := s.repo.AddStoreOrder(r.Context(), storeID, shop.StoreOrder{
		ID:          req.ID,
		UserID:      req.UserID,
		UserName:    req.UserName,
		ReferenceID: req.ReferenceID,
		CurrDate:    req.CurrDate,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, so)
}

func productPath(r *http.Request) (storeID, productID int, err error) {
	if storeID, err = pathInt(r, "storeID"); err != nil {
		return 0, 0, err
	}
	if productID, err = pathInt(r, "productID"); err != nil {
		return 0, 0, err
	}
	return storeID, productID, nil
}
