package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/app/accounts"
	"github.com/Overland-East-Bay/ridebook/internal/app/rides"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	clockport "github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
)

const bookRoute = "POST /api/rides/book"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type Server struct {
	Accounts *accounts.Service
	Rides    *rides.Service
	Idem     idempotency.Store

	// IdemTTL is how long a stored booking response is replayed.
	IdemTTL time.Duration
	Clock   clockport.Clock
	Logger  *slog.Logger
}

func NewServer(accountsSvc *accounts.Service, ridesSvc *rides.Service, idem idempotency.Store, idemTTL time.Duration, clk clockport.Clock, logger *slog.Logger) *Server {
	return &Server{
		Accounts: accountsSvc,
		Rides:    ridesSvc,
		Idem:     idem,
		IdemTTL:  idemTTL,
		Clock:    clk,
		Logger:   logging.OrDiscard(logger),
	}
}

func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeAuthError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	res, err := s.Accounts.Signup(r.Context(), accounts.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		s.writeAccountsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, User: userFromDomain(res.User)})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeAuthError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	res, err := s.Accounts.Login(r.Context(), accounts.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		s.writeAccountsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, User: userFromDomain(res.User)})
}

// BookRide creates a ride for the caller.
//
// Idempotency handling:
// - Replay if same subject+key+route+bodyHash within IdemTTL
// - Requests without a key are never replayed
func (s *Server) BookRide(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeMessageError(w, r, http.StatusUnauthorized, "Access denied. No token provided.", nil)
		return
	}
	var req bookRideRequest
	raw, err := decodeBody(r, &req)
	if err != nil {
		writeMessageError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotency.Header))
	var fp idempotency.Fingerprint
	if key != "" && s.Idem != nil {
		fp = idempotency.Fingerprint{
			Key:      idempotency.Key(key),
			Subject:  id.Subject,
			Route:    bookRoute,
			BodyHash: hashBody(raw),
		}
		notBefore := s.Clock.Now().UTC().Add(-s.IdemTTL)
		if rec, found, err := s.Idem.Get(r.Context(), fp, notBefore); err != nil {
			s.Logger.Error("idempotency lookup failed", "error", err)
			writeMessageError(w, r, http.StatusInternalServerError, "Internal server error", nil)
			return
		} else if found {
			s.Logger.Debug("replaying booking", "subject", id.Subject, "key", key)
			writeRawJSON(w, rec.StatusCode, rec.Body)
			return
		}
	}

	ride, err := s.Rides.Book(r.Context(), id.UserID, domain.BookingRequest{PickupText: req.PickupLocation, DropoffText: req.DropLocation})
	if err != nil {
		if ae := (*rides.Error)(nil); errors.As(err, &ae) {
			writeMessageError(w, r, ae.Status, ae.Message, ae.Details)
			return
		}
		s.Logger.Error("book ride failed", "error", err)
		writeMessageError(w, r, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	body, err := json.Marshal(rideFromDomain(ride))
	if err != nil {
		writeMessageError(w, r, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	if fp.Key != "" {
		if err := s.Idem.Put(r.Context(), fp, idempotency.Record{
			StatusCode: http.StatusOK,
			Body:       body,
			CreatedAt:  s.Clock.Now().UTC(),
		}); err != nil {
			s.Logger.Warn("idempotency store failed", "error", err)
		}
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) ListMyRides(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeMessageError(w, r, http.StatusUnauthorized, "Access denied. No token provided.", nil)
		return
	}
	rs, err := s.Rides.ListMine(r.Context(), id.UserID)
	if err != nil {
		s.Logger.Error("list rides failed", "error", err)
		writeMessageError(w, r, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	out := make([]rideDTO, 0, len(rs))
	for _, rd := range rs {
		out = append(out, rideFromDomain(rd))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeAccountsError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*accounts.Error)(nil); errors.As(err, &ae) {
		writeAuthError(w, r, ae.Status, ae.Message, ae.Details)
		return
	}
	s.Logger.Error("accounts request failed", "error", err)
	writeAuthError(w, r, http.StatusInternalServerError, "Internal server error", nil)
}

// decodeBody reads and decodes a JSON body, returning the raw bytes for hashing.
func decodeBody(r *http.Request, v any) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return raw, nil
}

// hashBody hashes the canonical re-encoding of a JSON body so that
// whitespace and key order do not change the fingerprint.
func hashBody(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		if b, err := json.Marshal(v); err == nil {
			raw = b
		}
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
