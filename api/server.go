// Package api exposes the messaging-provider webhook over HTTP.
package api

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/dlemos/converso/conversation"
)

// Responder runs one conversation cycle for an inbound webhook message.
type Responder interface {
	Respond(ctx context.Context, sessionID, utterance string) (conversation.Reply, error)
}

// Server answers the provider webhook with the small TwiML-style XML
// envelope the messaging provider expects.
type Server struct {
	responder Responder
	persona   string
	segments  func() int
	logger    *log.Logger
	handler   http.Handler
}

type statusResponse struct {
	Status   string `json:"status"`
	Persona  string `json:"persona"`
	Segments int    `json:"segments"`
}

type messageEnvelope struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func New(responder Responder, persona string, segments func() int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if segments == nil {
		segments = func() int { return 0 }
	}

	s := &Server{
		responder: responder,
		persona:   persona,
		segments:  segments,
		logger:    logger,
	}
	s.handler = cors.Default().Handler(s.routes())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	return router
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := statusResponse{
		Status:   "Bot com Memória Online 🧠",
		Persona:  s.persona,
		Segments: s.segments(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode status response: %v", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(r.PostFormValue("Body"))
	from := strings.TrimSpace(r.PostFormValue("From"))
	if body == "" || from == "" {
		http.Error(w, "Body and From are required", http.StatusBadRequest)
		return
	}

	s.logger.Printf("inbound message from %s", from)

	reply, err := s.responder.Respond(r.Context(), from, body)
	if err != nil {
		// The reply already carries the fixed user-safe message; the raw
		// failure is only logged.
		s.logger.Printf("respond to %s: %v", from, err)
	}
	if reply.Lead != nil {
		s.logger.Printf("lead captured from %s: %s", from, reply.Lead.Name)
	}

	s.writeXML(w, reply.Text)
}

func (s *Server) writeXML(w http.ResponseWriter, message string) {
	envelope, err := xml.Marshal(messageEnvelope{Message: message})
	if err != nil {
		s.logger.Printf("marshal xml envelope: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		s.logger.Printf("write xml header: %v", err)
		return
	}
	if _, err := w.Write(envelope); err != nil {
		s.logger.Printf("write xml envelope: %v", err)
	}
}
