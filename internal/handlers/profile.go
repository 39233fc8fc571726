package handlers

import (
	"encoding/json"
	"net/http"

	"notesync/internal/contextutil"
	"notesync/internal/service"
)

// ProfileHandler serves /api/profile: lookup and creation.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateProfileRequest is the POST body.
type CreateProfileRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	PinHash     string `json:"pinHash"`
}

// ServeHTTP dispatches on method.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		profile, err := h.profileService.Get(ctx, r.URL.Query().Get("name"))
		if err != nil {
			handleServiceError(ctx, w, err, "Failed to load profile")
			return
		}
		writeJSON(ctx, w, http.StatusOK, profile)

	case http.MethodPost:
		var req CreateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
			return
		}

		profile, err := h.profileService.Create(ctx, service.CreateProfileRequest{
			Name:        req.Name,
			DisplayName: req.DisplayName,
			PinHash:     req.PinHash,
		})
		if err != nil {
			handleServiceError(ctx, w, err, "Failed to create profile")
			return
		}
		writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Profile: profile})

	default:
		MethodNotAllowed(w, r)
	}
}

// ProfilesHandler serves the profile listing.
type ProfilesHandler struct {
	profileService service.ProfileService
}

// NewProfilesHandler creates a new ProfilesHandler.
func NewProfilesHandler(profileService service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profileService: profileService}
}

// ProfilesResponse is the listing payload.
type ProfilesResponse struct {
	Profiles []service.ProfileSummary `json:"profiles"`
}

// ServeHTTP lists profiles.
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	profiles, err := h.profileService.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []service.ProfileSummary{}
	}
	writeJSON(ctx, w, http.StatusOK, ProfilesResponse{Profiles: profiles})
}
