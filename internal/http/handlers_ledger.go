package http

import (
	"fmt"
	"net/http"

	"myfinances/internal/core"
	"myfinances/internal/ledger"
)

type summaryResponse struct {
	Identity core.Identity `json:"identity"`
	ledger.Result
}

// currentIdentity returns the signed-in identity or an InvalidIdentity error.
func (s *Server) currentIdentity() (core.Identity, error) {
	id, ok := s.sessions.Current()
	if !ok {
		return core.Identity{}, fmt.Errorf("%w: not signed in", core.ErrInvalidIdentity)
	}
	return id, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := s.currentIdentity()
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	res, err := s.ledger.LoadSummary(r.Context(), id.ID)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewResponse().JSON(summaryResponse{Identity: id, Result: res}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := s.currentIdentity()
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}
	tx, err := req.Transaction(s.today())
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	if err := s.ledger.Append(r.Context(), id.ID, tx); err != nil {
		FromError(r, err).Write(w)
		return
	}

	f := s.ledger.Formatter()
	category, _ := core.LookupCategory(tx.Category)
	NewResponse().
		Status(http.StatusCreated).
		JSON(ledger.Entry{
			ID:        tx.ID,
			Name:      tx.Name,
			Amount:    f.Amount(tx.Amount),
			Direction: tx.Direction,
			Category:  category,
			Date:      f.EntryDate(tx.Date),
		}).
		Write(w)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string][]core.Category{"categories": core.Categories()}).Write(w)
}
