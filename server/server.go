package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"particlesphere/config"
	"particlesphere/metrics"
	"particlesphere/simulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types on the control socket
const (
	TypeConfig   = "config"
	TypePointer  = "pointer"
	TypeLeave    = "leave"
	TypeSettings = "settings"
	TypeStats    = "stats"
	TypeError    = "error"
)

// Stats is the periodic status broadcast to control clients
type Stats struct {
	Type        string     `json:"type"`
	Tick        uint64     `json:"tick"`
	Particles   int        `json:"particles"`
	Density     int        `json:"density"`
	Hover       float32    `json:"hover"`
	Target      [3]float32 `json:"target"`
	Orientation [2]float64 `json:"orientation"`
	FrameMs     float64    `json:"frameMs"`
}

// StatsFromFrame summarizes a finished frame
func StatsFromFrame(f *simulation.Frame, frameTime time.Duration) Stats {
	return Stats{
		Type:        TypeStats,
		Tick:        f.Tick,
		Particles:   f.Len(),
		Density:     f.Density,
		Hover:       f.Interaction.Hover,
		Target:      f.Interaction.Target,
		Orientation: [2]float64{f.Orientation.Y, f.Orientation.Z},
		FrameMs:     float64(frameTime) / float64(time.Millisecond),
	}
}

type settingsMessage struct {
	Type     string                `json:"type"`
	Settings config.SphereSettings `json:"settings"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Server exposes the control socket at /ws, the current settings at
// /settings and Prometheus metrics at /metrics
type Server struct {
	logger     *zap.Logger
	controller *Controller
	recorder   *metrics.Recorder
	stats      func() Stats
	interval   time.Duration
	upgrader   websocket.Upgrader

	clients      map[*websocket.Conn]*sync.Mutex
	clientsMutex sync.RWMutex
}

// New creates a server. stats is polled every interval for the broadcast;
// recorder may be nil.
func New(controller *Controller, recorder *metrics.Recorder, stats func() Stats, interval time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	s := &Server{
		logger:     logger,
		controller: controller,
		recorder:   recorder,
		stats:      stats,
		interval:   interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Local control surface
			},
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
	controller.OnChange(s.broadcastSettings)
	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/settings", s.handleSettings)
	if s.recorder != nil {
		mux.Handle("/metrics", s.recorder.Handler())
	}
	return mux
}

// Run serves on addr and broadcasts stats until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Control server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.broadcastLoop(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.closeClients()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPatch, http.MethodPost:
		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := s.controller.Patch("http", patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, PATCH, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.controller.Settings()); err != nil {
		s.logger.Warn("Writing settings response", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.logger.With(zap.String("client_id", newClientID()), zap.String("remote", r.RemoteAddr))

	connMutex := &sync.Mutex{}
	s.clientsMutex.Lock()
	s.clients[conn] = connMutex
	s.updateClientGauge()
	s.clientsMutex.Unlock()
	log.Info("Control client connected")
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.updateClientGauge()
		s.clientsMutex.Unlock()
		log.Info("Control client disconnected")
	}()

	// Send current settings first
	s.send(conn, connMutex, settingsMessage{Type: TypeSettings, Settings: s.controller.Settings()})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(conn, connMutex, errorMessage{Type: TypeError, Error: err.Error()})
			continue
		}
		if err := s.dispatch(msg); err != nil {
			log.Debug("Rejected control message", zap.Error(err))
			s.send(conn, connMutex, errorMessage{Type: TypeError, Error: err.Error()})
		}
	}
}

// dispatch routes one control message. Messages without a type are treated
// as config patches.
func (s *Server) dispatch(msg map[string]interface{}) error {
	kind, _ := msg["type"].(string)
	input := s.controller.Pipeline().Input()

	switch kind {
	case TypePointer:
		if point, ok := vec3(msg["point"]); ok {
			input.MoveWorld(point)
			return nil
		}
		origin, okOrigin := vec3(msg["origin"])
		direction, okDir := vec3(msg["direction"])
		if !okOrigin || !okDir || direction.Len() == 0 {
			return errors.New("pointer message needs a point or an origin and a non-zero direction")
		}
		input.MoveRay(simulation.Ray{Origin: origin, Direction: direction})
		return nil
	case TypeLeave:
		input.Leave()
		return nil
	case TypeConfig, "":
		delete(msg, "type")
		_, err := s.controller.Patch("websocket", msg)
		return err
	default:
		return fmt.Errorf("unknown message type %q", kind)
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	if s.stats == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.broadcast(s.stats())
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) broadcastSettings(settings config.SphereSettings) {
	s.broadcast(settingsMessage{Type: TypeSettings, Settings: settings})
}

// broadcast encodes v once and writes it to every client, dropping clients
// whose write fails
func (s *Server) broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Encoding broadcast", zap.Error(err))
		return
	}

	s.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range s.clients {
		mutex.Lock()
		err := client.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()
		if err != nil {
			s.logger.Debug("WebSocket write error", zap.Error(err))
			client.Close()
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.clientsMutex.RUnlock()

	// Remove failed clients
	if len(clientsToRemove) > 0 {
		s.clientsMutex.Lock()
		for _, client := range clientsToRemove {
			delete(s.clients, client)
		}
		s.updateClientGauge()
		s.clientsMutex.Unlock()
	}
}

func (s *Server) send(conn *websocket.Conn, mutex *sync.Mutex, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Encoding message", zap.Error(err))
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("WebSocket write error", zap.Error(err))
	}
}

func (s *Server) closeClients() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for client := range s.clients {
		client.Close()
	}
}

// updateClientGauge must be called with clientsMutex held
func (s *Server) updateClientGauge() {
	if s.recorder != nil {
		s.recorder.Clients.Set(float64(len(s.clients)))
	}
}

// ClientCount returns the number of connected control clients
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// newClientID returns a time-ordered id for log correlation
func newClientID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func vec3(v interface{}) (mgl32.Vec3, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return mgl32.Vec3{}, false
	}
	var out mgl32.Vec3
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return mgl32.Vec3{}, false
		}
		out[i] = float32(f)
	}
	return out, true
}
