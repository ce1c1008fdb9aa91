package httpapi

import (
	"net/http"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	view, err := s.services.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.services.Settings.Update(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCycleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Cycles.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCycleStart(mode domain.CycleMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LengthMS *int64            `json:"length_ms"`
			Minutes  *float64          `json:"minutes"`
			Familiar domain.FamiliarID `json:"familiar"`
		}
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		status, err := s.services.Cycles.Start(r.Context(), application.StartCycleCommand{
			Mode:     mode,
			LengthMS: req.LengthMS,
			Minutes:  req.Minutes,
			Familiar: req.Familiar,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func (s *Server) handleCycleStop(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Cycles.Stop(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStartBreak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Familiar domain.FamiliarID `json:"familiar"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cameos, err := s.services.Moments.StartBreak(r.Context(), req.Familiar)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Cameo{"moments": cameos})
}

func (s *Server) handleCommitMoment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Familiar domain.FamiliarID `json:"familiar"`
		Pose     string            `json:"pose"`
		Kind     string            `json:"kind"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Moments.Commit(r.Context(), application.CommitMomentCommand{
		Familiar: req.Familiar,
		Pose:     req.Pose,
		Kind:     req.Kind,
	}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// familiarGet adapts a per-familiar read to a handler.
func familiarGet[T any](s *Server, read func(*http.Request, domain.FamiliarID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := read(r, domain.FamiliarID(r.PathValue("id")))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, value)
	}
}

func (s *Server) handleListFamiliars(w http.ResponseWriter, r *http.Request) {
	familiars, err := s.services.Familiars.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.FamiliarSummary{"familiars": familiars})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.Meta, error) {
		return s.services.Familiars.Meta(r.Context(), id)
	})(w, r)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.State, error) {
		return s.services.Familiars.State(r.Context(), id)
	})(w, r)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (map[string]any, error) {
		return s.services.Familiars.Profile(r.Context(), id)
	})(w, r)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.ActivityList, error) {
		return s.services.Familiars.Activities(r.Context(), id)
	})(w, r)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.Catalog, error) {
		return s.services.Familiars.Catalog(r.Context(), id)
	})(w, r)
}

func (s *Server) handleAvatars(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (map[string][]domain.Pose, error) {
		catalog, err := s.services.Familiars.Catalog(r.Context(), id)
		return map[string][]domain.Pose{"avatars": catalog.Poses}, err
	})(w, r)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (map[string][]domain.Background, error) {
		catalog, err := s.services.Familiars.Catalog(r.Context(), id)
		return map[string][]domain.Background{"locations": catalog.Backgrounds}, err
	})(w, r)
}

func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (application.JourneyView, error) {
		return s.services.Familiars.Journey(r.Context(), id)
	})(w, r)
}

// handleLayout resolves ?pose=&bg=&committee=.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.resolveLayout(w, r, r.URL.Query().Get("pose"))
}

func (s *Server) handleAvatarLayout(w http.ResponseWriter, r *http.Request) {
	s.resolveLayout(w, r, r.PathValue("path"))
}

func (s *Server) resolveLayout(w http.ResponseWriter, r *http.Request, pose string) {
	query := r.URL.Query()
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.Layout, error) {
		return s.services.Familiars.Layout(r.Context(), id, ports.LayoutRequest{
			Pose:       pose,
			Background: query.Get("bg"),
			Committee:  truthy(query.Get("committee")),
		})
	})(w, r)
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var patch domain.StatePatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (domain.State, error) {
		return s.services.Familiars.UpdateState(r.Context(), id, patch)
	})(w, r)
}

func (s *Server) handleMergeProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	familiarGet(s, func(r *http.Request, id domain.FamiliarID) (map[string]any, error) {
		return s.services.Familiars.MergeProfile(r.Context(), id, patch)
	})(w, r)
}
