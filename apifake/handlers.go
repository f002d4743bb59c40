package apifake

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
)

type contextKey string

const contextKeyUser contextKey = "user"

const (
	msgFieldRequired   = "This field is required."
	msgNoActiveAccount = "No active account found with the given credentials"
	msgTokenInvalid    = "Token is invalid or expired"
	msgNotProvided     = "Authentication credentials were not provided."
	msgTokenNotValid   = "Given token not valid for any token type"
	minPasswordLength  = 8
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail, code string) {
	writeJSON(w, status, authmodel.Detail{Detail: detail, Code: code})
}

// fieldErrors collects per-field messages the way a DRF serializer reports them
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, msgFieldRequired)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("JSON parse error - %v", err), "parse_error")
		return false
	}
	return true
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req authmodel.TokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.required("username", req.Username)
	errs.required("password", req.Password)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	u, err := s.users.Get(req.Username)
	if err != nil || !u.Active || !checkPasswordHash(req.Password, u.PasswordHash) {
		writeDetail(w, http.StatusUnauthorized, msgNoActiveAccount, "no_active_account")
		return
	}

	access, refresh, err := s.tokens.pair(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	pair := authmodel.TokenPair{Access: access, Refresh: refresh}
	if s.identityInPair {
		pair.User = &authmodel.UserInfo{ID: u.ID, Username: u.Username, Email: u.Email}
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	failure, delay := s.refreshFailure, s.refreshDelay
	s.lock.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if failure != 0 {
		writeDetail(w, failure, msgTokenInvalid, authmodel.CodeTokenNotValid)
		return
	}

	var req authmodel.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.required("refresh", req.Refresh)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	claims, err := s.tokens.verify(req.Refresh, tokenTypeRefresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, msgTokenInvalid, authmodel.CodeTokenNotValid)
		return
	}
	u, err := s.users.GetByID(userID(claims))
	if err != nil || !u.Active {
		writeDetail(w, http.StatusUnauthorized, msgNoActiveAccount, authmodel.CodeUserInactive)
		return
	}

	access, err := s.tokens.issue(u, tokenTypeAccess)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	resp := authmodel.RefreshResponse{Access: access}
	if s.rotate {
		if resp.Refresh, err = s.tokens.issue(u, tokenTypeRefresh); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		s.tokens.revoke(claims)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authmodel.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.required("username", req.Username)
	errs.required("email", req.Email)
	errs.required("password", req.Password)
	if req.Username != "" && s.users.Exists(req.Username) {
		errs.add("username", "A user with that username already exists.")
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		errs.add("email", "Enter a valid email address.")
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		errs.add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	u, err := s.users.Create(req.Username, req.Email, req.Password)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req authmodel.LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	claims, err := s.tokens.verify(req.Refresh, tokenTypeRefresh)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Token is invalid or expired.", "")
		return
	}
	s.tokens.revoke(claims)
	writeDetail(w, http.StatusResetContent, "Successfully logged out.", "")
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req authmodel.PasswordResetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.required("email", req.Email)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	if u, err := s.users.GetByEmail(req.Email); err == nil {
		otp, err := generateOTP()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		s.lock.Lock()
		s.otps[u.Email] = otp
		s.lock.Unlock()
	}
	writeDetail(w, http.StatusOK, "If an account exists with this email, an OTP has been sent.", "")
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req authmodel.PasswordResetConfirm
	if !decodeBody(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	errs.required("email", req.Email)
	errs.required("otp", req.OTP)
	errs.required("new_password", req.NewPassword)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	u, err := s.users.GetByEmail(req.Email)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid email or OTP.", "")
		return
	}
	s.lock.Lock()
	otp, ok := s.otps[u.Email]
	if ok && otp == req.OTP {
		delete(s.otps, u.Email)
	}
	s.lock.Unlock()
	if !ok || otp != req.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP.", "")
		return
	}
	if err := s.users.SetPassword(u.Username, req.NewPassword); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeDetail(w, http.StatusOK, "Password has been reset successfully.", "")
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// requireAuth admits requests carrying a valid access token
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeDetail(w, http.StatusUnauthorized, msgNotProvided, "not_authenticated")
			return
		}
		raw, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, msgTokenNotValid, authmodel.CodeTokenNotValid)
			return
		}
		claims, err := s.tokens.verify(raw, tokenTypeAccess)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, msgTokenNotValid, authmodel.CodeTokenNotValid)
			return
		}
		u, err := s.users.GetByID(userID(claims))
		if err != nil || !u.Active {
			writeDetail(w, http.StatusUnauthorized, "User not found", "user_not_found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyUser, u)))
	})
}

func userFrom(r *http.Request) *user {
	u, _ := r.Context().Value(contextKeyUser).(*user)
	return u
}

// Holding is one position returned by the holdings route
type Holding struct {
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
	AvgPrice string `json:"avg_price"`
}

// WatchlistItem is one entry of a user's watchlist
type WatchlistItem struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []Holding{
		{Symbol: "AAPL", Quantity: 10, AvgPrice: "150.00"},
		{Symbol: "MSFT", Quantity: 4, AvgPrice: "310.50"},
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	s.lock.Lock()
	symbols := append([]string(nil), s.watchlists[u.ID]...)
	s.lock.Unlock()

	items := make([]WatchlistItem, 0, len(symbols))
	for _, sym := range symbols {
		items = append(items, WatchlistItem{Symbol: sym})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var item WatchlistItem
	if !decodeBody(w, r, &item) {
		return
	}
	errs := fieldErrors{}
	errs.required("symbol", item.Symbol)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	u := userFrom(r)
	item.Symbol = strings.ToUpper(item.Symbol)
	s.lock.Lock()
	s.watchlists[u.ID] = append(s.watchlists[u.ID], item.Symbol)
	s.lock.Unlock()
	writeJSON(w, http.StatusCreated, item)
}
