package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DoyleJ11/debate-lobby-backend/internal/hub"
	"github.com/DoyleJ11/debate-lobby-backend/internal/lobby"
	"github.com/DoyleJ11/debate-lobby-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 10

type API struct {
	hub      *hub.Hub
	validate *validator.Validate
	log      *zap.Logger
}

func NewAPI(h *hub.Hub, log *zap.Logger) *API {
	return &API{hub: h, validate: validator.New(validator.WithRequiredStructEnabled()), log: log}
}

type fieldMessages map[string]map[string]string

var identityMessages = fieldMessages{
	"Identity": {
		"required": "identity is required",
		"min":      "identity must be at least 2 characters",
		"max":      "identity must be 32 characters or fewer",
	},
}

// bindJSON decodes and validates req, writing a 400 on failure. String fields are validated
// after trimming.
func (a *API) bindJSON(w http.ResponseWriter, r *http.Request, req *types.IdentityRequest) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	req.Identity = strings.TrimSpace(req.Identity)
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, resolveValidationError(err, identityMessages))
		return false
	}
	return true
}

func resolveValidationError(err error, messages fieldMessages) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := messages[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	return "invalid request"
}

func (a *API) CreateLobby(w http.ResponseWriter, r *http.Request) {
	var req types.IdentityRequest
	if !a.bindJSON(w, r, &req) {
		return
	}

	lb, err := a.hub.Create(r.Context(), req.Identity)
	if err != nil {
		a.writeLobbyError(w, err)
		return
	}
	view, err := lb.State(r.Context())
	if err != nil {
		a.writeLobbyError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Code  string         `json:"code"`
		Lobby lobby.Snapshot `json:"lobby"`
	}{Code: lb.Code(), Lobby: view.Lobby})
}

func (a *API) JoinLobby(w http.ResponseWriter, r *http.Request) {
	var req types.IdentityRequest
	if !a.bindJSON(w, r, &req) {
		return
	}

	res, err := a.hub.Join(r.Context(), chi.URLParam(r, "code"), req.Identity)
	if err != nil {
		a.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Lobby       lobby.Snapshot `json:"lobby"`
		Reconnected bool           `json:"reconnected"`
	}{Lobby: res.Lobby, Reconnected: res.Reconnected})
}

func (a *API) GetLobby(w http.ResponseWriter, r *http.Request) {
	lb, err := a.hub.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeLobbyError(w, err)
		return
	}
	view, err := lb.State(r.Context())
	if err != nil {
		a.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Lobby lobby.Snapshot `json:"lobby"`
	}{Lobby: view.Lobby})
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	n, err := a.hub.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status  string `json:"status"`
		Lobbies int    `json:"lobbies"`
	}{Status: "ok", Lobbies: n})
}

func (a *API) writeLobbyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hub.ErrNotFound), errors.Is(err, lobby.ErrLobbyClosed):
		writeError(w, http.StatusNotFound, "lobby not found")
	case errors.Is(err, lobby.ErrIdentityTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, hub.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting down")
	default:
		a.log.Error("lobby request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
