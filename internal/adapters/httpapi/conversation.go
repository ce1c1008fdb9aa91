package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

// chatKeys are the body keys mapped onto first-class turn fields; anything
// else travels with the turn as an extra.
var chatKeys = map[string]struct{}{
	"familiar": {}, "message": {}, "kind": {}, "committee": {}, "invite_familiar": {},
	"break_kind": {}, "batch": {}, "pose_tags": {}, "include_memory": {}, "immersive": {},
}

type chatRequest struct {
	Familiar       domain.FamiliarID `json:"familiar"`
	Message        string            `json:"message"`
	Kind           string            `json:"kind"`
	Committee      *domain.Committee `json:"committee"`
	InviteFamiliar string            `json:"invite_familiar"`
	BreakKind      string            `json:"break_kind"`
	Batch          json.RawMessage   `json:"batch"`
	PoseTags       []string          `json:"pose_tags"`
	IncludeMemory  *bool             `json:"include_memory"`
	Immersive      *bool             `json:"immersive"`
}

type turnResponse struct {
	TurnID string `json:"turn_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req chatRequest
	if err := json.Unmarshal(encoded, &req); err != nil {
		s.writeError(w, r, invalidBody(err))
		return
	}

	var extras map[string]json.RawMessage
	for key, value := range raw {
		if _, known := chatKeys[key]; known {
			continue
		}
		if extras == nil {
			extras = map[string]json.RawMessage{}
		}
		extras[key] = value
	}

	turnID, err := s.services.Conversations.Chat(r.Context(), application.ChatCommand{
		Familiar:       req.Familiar,
		Message:        req.Message,
		Kind:           req.Kind,
		Committee:      req.Committee,
		InviteFamiliar: req.InviteFamiliar,
		BreakKind:      req.BreakKind,
		Batch:          req.Batch,
		PoseTags:       req.PoseTags,
		IncludeMemory:  req.IncludeMemory,
		Immersive:      req.Immersive,
		Extras:         extras,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{TurnID: turnID})
}

func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Familiar      domain.FamiliarID `json:"familiar"`
		IncludeMemory *bool             `json:"include_memory"`
		Immersive     *bool             `json:"immersive"`
		Activity      string            `json:"activity"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	turnID, err := s.services.Conversations.Greet(r.Context(), application.GreetCommand{
		Familiar:      req.Familiar,
		IncludeMemory: req.IncludeMemory,
		Immersive:     req.Immersive,
		Activity:      req.Activity,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{TurnID: turnID})
}

func (s *Server) handleTurnStatus(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view, err := s.services.Conversations.Status(r.Context(), domain.FamiliarID(query.Get("familiar")), query.Get("turn_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Familiar domain.FamiliarID `json:"familiar"`
		TurnID   string            `json:"turn_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Conversations.Cancel(r.Context(), req.Familiar, req.TurnID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.TurnCancelled), "turn_id": req.TurnID})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Conversations.Heartbeat(r.Context()))
}
