package api

import (
	"encoding/json"
	"net/http"

	"github.com/GiftLink-io/giftlink/internal/auth"
)

// RegisterHandler creates a new account and returns a session token.
func (a *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"authtoken": res.Token,
		"email":     res.Email,
	})
}

// LoginHandler authenticates a user and returns a session token.
func (a *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := a.accounts.Login(r.Context(), in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"authtoken": res.Token,
		"userName":  res.FirstName,
		"userEmail": res.Email,
	})
}

// UpdateProfileHandler applies a partial profile update for the caller
// identified by the verified token and re-issues a token.
func (a *Api) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token missing")
		return
	}

	var in auth.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := a.accounts.UpdateProfile(r.Context(), subject, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"authtoken": res.Token})
}
