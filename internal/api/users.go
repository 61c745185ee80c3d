package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/storefront/internal/repo"
	"github.com/roach88/storefront/internal/shop"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartRequest struct {
	StoreID   int `json:"storeID"`
	ProductID int `json:"productID"`
	Quantity  int `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.repo.GetAllUsers(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(users))
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) error {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	u, err := s.repo.AddUser(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	ok, err := s.repo.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return writeJSON(w, http.StatusUnauthorized, errorBody{Error: apiError{
			Code:    codeInvalidCredentials,
			Message: "invalid username or password",
		}})
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"username":      repo.NormalizeUsername(req.Username),
		"authenticated": true,
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) error {
	lines, err := s.repo.GetCart(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(lines))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) error {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	line, err := s.repo.AddProductOrder(r.Context(), r.PathValue("username"), req.StoreID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, line)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) error {
	n, err := s.repo.ClearCart(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (s *Server) editCartLine(w http.ResponseWriter, r *http.Request) error {
	id, err := s.ownedLine(r.Context(), r)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	line, err := s.repo.EditProductOrder(r.Context(), id, req.Quantity)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, line)
}

func (s *Server) deleteCartLine(w http.ResponseWriter, r *http.Request) error {
	id, err := s.ownedLine(r.Context(), r)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProductOrder(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) error {
	orders, err := s.repo.Checkout(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, nonNil(orders))
}

func (s *Server) listUserOrders(w http.ResponseWriter, r *http.Request) error {
	by, err := repo.ParseOrderSort(r.URL.Query().Get("sort"))
	if err != nil {
		return err
	}
	orders, err := s.repo.GetStoreOrders(r.Context(), r.PathValue("username"), by)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, nonNil(orders))
}

// ownedLine resolves the {orderID} path segment to a product order of the
// {username} user. Lines of other users are reported as not found.
func (s *Server) ownedLine(ctx context.Context, r *http.Request) (int, error) {
	id, err := pathInt(r, "orderID")
	if err != nil {
		return 0, err
	}
	username := r.PathValue("username")
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	line, err := s.repo.GetProductOrder(ctx, id)
	if err != nil {
		return 0, err
	}
	if line.UserID != u.ID {
		return 0, fmt.Errorf("product order %d of %q: %w", id, u.Username, shop.ErrNotFound)
	}
	return id, nil
}
