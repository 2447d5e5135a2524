package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pennykeep/internal/core"
	"pennykeep/internal/store"
)

func parsePartition(raw string) (core.TransactionType, error) {
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(raw)))
	if !typ.Valid() {
		return "", errors.New("type must be 'expense' or 'income'")
	}
	return typ, nil
}

// handleListCategories returns one partition (?type=expense|income) or both.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ, err := parsePartition(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{string(typ): s.categories.Names(typ)})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		string(core.Expense): s.categories.ExpenseCategories(),
		string(core.Income):  s.categories.IncomeCategories(),
	})
}

type addCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	typ, err := parsePartition(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.categories.Add(r.Context(), req.Name, typ); {
	case errors.Is(err, store.ErrEmptyCategoryName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save category")
	default:
		writeJSON(w, http.StatusCreated, map[string][]string{string(typ): s.categories.Names(typ)})
	}
}

type deleteCategoriesRequest struct {
	Type    string `json:"type"`
	Indices []int  `json:"indices"`
}

// handleDeleteCategories removes the entries at the given positions and
// returns the surviving partition.
func (s *Server) handleDeleteCategories(w http.ResponseWriter, r *http.Request) {
	var req deleteCategoriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	typ, err := parsePartition(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Indices) == 0 {
		writeError(w, http.StatusBadRequest, "indices must not be empty")
		return
	}

	if err := s.categories.Delete(r.Context(), typ, req.Indices...); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{string(typ): s.categories.Names(typ)})
}

type moveCategoriesRequest struct {
	Type string `json:"type"`
	From []int  `json:"from"`
	To   int    `json:"to"`
}

// handleMoveCategories reorders a partition: the entries at from are
// reinserted before the entry that was at to.
func (s *Server) handleMoveCategories(w http.ResponseWriter, r *http.Request) {
	var req moveCategoriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	typ, err := parsePartition(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.From) == 0 {
		writeError(w, http.StatusBadRequest, "from must not be empty")
		return
	}

	if err := s.categories.Move(r.Context(), typ, req.From, req.To); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to move categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{string(typ): s.categories.Names(typ)})
}
