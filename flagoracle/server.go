package flagoracle

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// logger mirrors fret.logger's setup; the control plane logs its own
// failures but never lets them reach the engine (spec.md §7).
var logger = slog.Default()

// Server is the HTTP control plane of spec.md §6.2, backed by a Store.
type Server struct {
	store *Store
	mux   *http.ServeMux
}

// NewServer builds a Server routing the three PUT verbs and the status GET
// over store. No third-party router exists anywhere in the retrieved
// corpus, so this uses Go 1.22's net/http.ServeMux method+wildcard patterns
// rather than reaching for one.
func NewServer(store *Store) *Server {
	s := &Server{store: store, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /flags/status", s.handleStatus)
	s.mux.HandleFunc("PUT /flags/set/{profileId}/{flagName}/{enabled}", s.handleSet)
	s.mux.HandleFunc("PUT /flags/enable/{profileId}/{flagName}", s.handleEnable)
	s.mux.HandleFunc("PUT /flags/disable/{profileId}/{flagName}", s.handleDisable)
	s.mux.HandleFunc("/", s.handleNotFound)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("flagoracle: encode response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.Snapshot()
	out := make(map[string]map[string]bool, len(snapshot))
	for profileID, flags := range snapshot {
		out[profileID.String()] = flags
	}
	writeJSON(w, http.StatusOK, out)
}

// parseProfileAndFlag extracts the {profileId}/{flagName} wildcards shared by
// all three PUT routes and validates profileId as a UUID; the flag name is
// checked by the caller.
func parseProfileAndFlag(r *http.Request) (uuid.UUID, string, bool) {
	profileID, err := uuid.Parse(r.PathValue("profileId"))
	if err != nil {
		return uuid.UUID{}, "", false
	}
	flagName := r.PathValue("flagName")
	return profileID, flagName, true
}

func (s *Server) setAndRespond(w http.ResponseWriter, r *http.Request, enabled bool) {
	profileID, name, ok := parseProfileAndFlag(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid profileId")
		return
	}
	flag, ok := parseFlagName(name)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown flag: "+name)
		return
	}
	s.store.Set(profileID, flag, enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"profileId": profileID.String(),
		"flag":      flagName(flag),
		"enabled":   enabled,
	})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.PathValue("enabled"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "enabled must be true or false")
		return
	}
	s.setAndRespond(w, r, enabled)
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.setAndRespond(w, r, true)
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.setAndRespond(w, r, false)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no such route: "+r.Method+" "+r.URL.Path)
}
