package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fieldwave.io/rf/mlrgw/modem"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  *modem.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transmit", s.handleTransmit)
	mux.HandleFunc("GET /packet", s.handleGetPacket)
	mux.HandleFunc("DELETE /packet", s.handleDropPacket)
	mux.HandleFunc("GET /rssi", s.handleRSSI)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// statusFor maps driver errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, modem.ErrInvalidArg):
		return http.StatusBadRequest
	case errors.Is(err, modem.ErrNoPacket):
		return http.StatusNotFound
	case errors.Is(err, modem.ErrBusy), errors.Is(err, modem.ErrChannelAccess):
		return http.StatusServiceUnavailable
	case errors.Is(err, modem.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleTransmit sends a radio telegram. The payload travels as base64 in
// JSON, so arbitrary binary data is fine.
func (s *Server) handleTransmit(w http.ResponseWriter, r *http.Request) {
	type TransmitRequest struct {
		Payload []byte `json:"payload"`
	}

	var req TransmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Payload) == 0 {
		s.sendError(w, "'payload' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Modem.Transmit(r.Context(), req.Payload); err != nil {
		s.Logger.Error("Failed to transmit", "error", err, "length", len(req.Payload))
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	s.Logger.Info("Telegram transmitted", "length", len(req.Payload))
	w.WriteHeader(http.StatusOK)
}

// handleGetPacket collects the latched received telegram, consuming it
func (s *Server) handleGetPacket(w http.ResponseWriter, r *http.Request) {
	p, err := s.Modem.TakePacket()
	if err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	type PacketResponse struct {
		Payload []byte `json:"payload"`
	}
	s.sendJSON(w, PacketResponse{Payload: p})
}

func (s *Server) handleDropPacket(w http.ResponseWriter, r *http.Request) {
	s.Modem.DropPacket()
	w.WriteHeader(http.StatusNoContent)
}

// handleRSSI reports the noise floor of the configured channel
func (s *Server) handleRSSI(w http.ResponseWriter, r *http.Request) {
	rssi, err := s.Modem.ChannelRSSI(r.Context())
	if err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	type RSSIResponse struct {
		RSSI int `json:"rssi_dbm"`
	}
	s.sendJSON(w, RSSIResponse{RSSI: rssi})
}

// handleInfo reports the modem identity and radio settings
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serial, err := s.Modem.SerialNumber(ctx)
	if err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	mode, err := s.Modem.Mode(ctx)
	if err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	channel, err := s.Modem.Channel(ctx)
	if err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	type InfoResponse struct {
		SerialNumber uint32 `json:"serial_number"`
		Mode         string `json:"mode"`
		Channel      byte   `json:"channel"`
	}
	s.sendJSON(w, InfoResponse{
		SerialNumber: serial,
		Mode:         mode.String(),
		Channel:      channel,
	})
}
