// Command mightysrv is the Mighty game server: an HTTP process that upgrades
// incoming connections to websockets and hands each one off to a session
// adapter (internal/session) bound to a room.Room.
//
// Grounded on cmd/pokersrv/main.go's flag-based CLI and db-then-logging-
// then-serve construction order; the grpc.Server/net.Listen pair there is
// replaced by an http.Server since this repo's wire protocol is tagged JSON
// over gorilla/websocket, not gRPC.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/decred/slog"

	"github.com/mighty/server/internal/health"
	"github.com/mighty/server/internal/hub"
	"github.com/mighty/server/internal/logging"
	"github.com/mighty/server/internal/room"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/session"
	"github.com/mighty/server/internal/store/sqlite"
	"github.com/mighty/server/internal/transport/ws"
)

func main() {
	var (
		dbPath      string
		host        string
		port        int
		portFile    string
		seed        int64
		reconnectMs int
		debugLevel  string
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&port, "port", 0, "Port to listen on (0 for random free port)")
	flag.StringVar(&portFile, "portfile", "", "If set, write selected port to this file")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for deals (0 = random)")
	flag.IntVar(&reconnectMs, "reconnect", 30000, "Milliseconds a disconnected player's seat is held before it is vacated")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "mighty_e2e.sqlite")
	}
	if seed == 0 {
		if env := os.Getenv("MIGHTY_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}
	reconnectTime := time.Duration(reconnectMs) * time.Millisecond

	db, err := sqlite.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	backend, level := logging.NewBackend(logging.Config{DebugLevel: debugLevel})
	log := logging.Logger(backend, level, "SRV")
	health.Report(logging.Logger(backend, level, "HEALTH"))

	mgr := session.NewManager()
	h := hub.New(db, mgr.Publish)
	if err := h.LoadFromStore(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load rooms: %v\n", err)
		os.Exit(1)
	}

	srv := &server{
		hub:           h,
		mgr:           mgr,
		log:           log,
		seed:          seed,
		reconnectTime: reconnectTime,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rooms", srv.handleRooms)
	mux.HandleFunc("/ws/play", srv.handlePlay)
	mux.HandleFunc("/ws/observe", srv.handleObserve)
	mux.HandleFunc("/ws/list", srv.handleList)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	if portFile != "" {
		_, p, _ := net.SplitHostPort(lis.Addr().String())
		_ = os.WriteFile(portFile, []byte(p), 0600)
	}

	log.Infof("listening on %s (seed=%d, reconnect=%s)", lis.Addr(), seed, reconnectTime)
	httpSrv := &http.Server{Handler: mux}
	if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "http serve error: %v\n", err)
		os.Exit(1)
	}
}

// server holds the process-wide collaborators every HTTP handler needs. It
// owns no mutable state of its own and needs no actor loop — a plain
// dependency bag, read-only once main assembles it.
type server struct {
	hub           *hub.Hub
	mgr           *session.Manager
	log           slog.Logger
	seed          int64
	reconnectTime time.Duration
}

// createRoomRequest is the JSON body of a POST /rooms request.
type createRoomRequest struct {
	Name string      `json:"name"`
	Head room.UserID `json:"head"`
	Rule *rule.Rule  `json:"rule,omitempty"`
}

type createRoomResponse struct {
	ID room.RoomID `json:"id"`
}

// handleRooms creates a room (POST) or lists every room's lobby info (GET),
// the plain-HTTP counterpart to the ws-based list session for clients that
// only need a one-shot snapshot rather than a live feed.
func (s *server) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.hub.ListRooms())
	case http.MethodPost:
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Head == "" {
			http.Error(w, "head is required", http.StatusBadRequest)
			return
		}
		ruleToUse := rule.NewRule()
		if req.Rule != nil {
			ruleToUse = *req.Rule
		}
		rm := s.hub.MakeRoom(req.Name, ruleToUse, req.Head)
		writeJSON(w, http.StatusCreated, createRoomResponse{ID: rm.GetInfo().ID})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handlePlay upgrades a connection and runs a PlayerSession bound to its
// user's seat for the connection's lifetime. If the user already holds a
// seat in the room (a reconnect within RECONNECTION_TIME), that seat is
// reused and the pending vacancy timer is cancelled; otherwise the user is
// seated via Join.
func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	rm, user, ok := s.lookupRoomAndUser(w, r)
	if !ok {
		return
	}

	seat, reconnecting := rm.Seat(user)
	if !reconnecting {
		var err error
		seat, err = rm.Join(user)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
	}
	s.hub.CancelVacate(user)

	tr, err := ws.Upgrade(w, r)
	if err != nil {
		s.log.Errorf("ws upgrade: %v", err)
		return
	}

	ps := session.NewPlayerSession(tr, rm, s.mgr, user, seat)
	if s.seed != 0 {
		ps.SetDealSeed(s.seed)
	}
	ps.Run(r.Context())
	_ = tr.Close()
	s.hub.ScheduleVacate(user, rm, s.reconnectTime)
}

// handleObserve upgrades a connection into a spectator slot; unlike a
// player's seat, an observer slot is simply dropped on disconnect — there is
// nothing to hold open for a reconnect.
func (s *server) handleObserve(w http.ResponseWriter, r *http.Request) {
	rm, user, ok := s.lookupRoomAndUser(w, r)
	if !ok {
		return
	}
	rm.Observe(user)

	tr, err := ws.Upgrade(w, r)
	if err != nil {
		s.log.Errorf("ws upgrade: %v", err)
		return
	}

	obs := session.NewObserveSession(tr, rm, s.mgr, user)
	obs.Run(r.Context())
	_ = tr.Close()
	_ = rm.Leave(user)
}

// handleList upgrades a connection into a lobby-browser session: no room or
// user parameter required, since a list session belongs to the whole Hub
// rather than one room.
func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	tr, err := ws.Upgrade(w, r)
	if err != nil {
		s.log.Errorf("ws upgrade: %v", err)
		return
	}
	ls := session.NewListSession(tr, s.hub)
	ls.Run(r.Context())
	_ = tr.Close()
}

// lookupRoomAndUser reads the "room" and "user" query parameters common to
// /ws/play and /ws/observe, resolving the room against the Hub and writing
// an HTTP error itself on failure.
func (s *server) lookupRoomAndUser(w http.ResponseWriter, r *http.Request) (*room.Room, room.UserID, bool) {
	roomID := room.RoomID(r.URL.Query().Get("room"))
	userID := room.UserID(r.URL.Query().Get("user"))
	if roomID == "" || userID == "" {
		http.Error(w, "room and user query parameters are required", http.StatusBadRequest)
		return nil, "", false
	}
	rm, ok := s.hub.GetRoom(roomID)
	if !ok {
		http.Error(w, "no such room", http.StatusNotFound)
		return nil, "", false
	}
	return rm, userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
