package handlers

import (
	"net/http"
	"time"

	"panellicense/logger"
	"panellicense/middleware"
	"panellicense/models"
	"panellicense/services"
)

// Generate issues a new license
// @Summary Generate a license
// @Description Issues a license for a tier. The domain is stored as the intended domain; the license stays unactivated until a client activates it.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenerateLicenseRequest true "license to generate"
// @Success 201 {object} models.APIResponse{data=models.License} "created"
// @Failure 400 {object} models.APIResponse "invalid tier or request"
// @Failure 401 {object} models.APIResponse "authentication required"
// @Failure 403 {object} models.APIResponse "admin role required"
// @Failure 503 {object} models.APIResponse "key generation exhausted"
// @Router /api/admin/licenses [post]
func (h *LicenseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateLicenseRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		status, body := h.rejectRequest(r, services.OpGenerate, err)
		writeJSON(w, status, body)
		return
	}

	params := services.GenerateParams{
		Tier:   req.Tier,
		Domain: req.Domain,
		UserID: req.UserID,
	}
	if req.GracePeriodDays != nil {
		grace := time.Duration(*req.GracePeriodDays) * 24 * time.Hour
		params.GracePeriod = &grace
	}

	lic, err := h.authority.Generate(r.Context(), params)
	if err != nil {
		writeError(w, r, services.OpGenerate, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"license_id": lic.ID,
		"tier":       lic.Tier,
		"actor":      services.ActorFromContext(r.Context()),
	}).Info("License generated")
	writeJSON(w, http.StatusCreated, models.SuccessResponse("License generated", lic))
}

// Get returns one license
// @Summary Get a license
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "license key"
// @Success 200 {object} models.APIResponse{data=models.License} "found"
// @Failure 401 {object} models.APIResponse "authentication required"
// @Failure 403 {object} models.APIResponse "admin role required"
// @Failure 404 {object} models.APIResponse "license not found"
// @Router /api/admin/licenses/{key} [get]
func (h *LicenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	lic, err := h.authority.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("License retrieved", lic))
}

// Activity lists the lifecycle events of a license
// @Summary License activity
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "license key"
// @Success 200 {object} models.APIResponse{data=[]models.LicenseActivity} "events, newest first"
// @Failure 404 {object} models.APIResponse "license not found"
// @Router /api/admin/licenses/{key}/activity [get]
func (h *LicenseHandler) Activity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.authority.Activity(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, "activity", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("License activity retrieved", entries))
}

// Suspend blocks a license
// @Summary Suspend a license
// @Description Validation fails with LICENSE_SUSPENDED until the license is reinstated. The binding is kept.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "license key"
// @Success 200 {object} models.APIResponse{data=models.License} "suspended"
// @Failure 404 {object} models.APIResponse "license not found"
// @Router /api/admin/licenses/{key}/suspend [post]
func (h *LicenseHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	lic, err := h.authority.Suspend(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, services.OpSuspend, err)
		return
	}
	h.logStatusChange(r, lic, "License suspended")
	writeJSON(w, http.StatusOK, models.SuccessResponse("License suspended", lic))
}

// Reinstate lifts a suspension
// @Summary Reinstate a license
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "license key"
// @Success 200 {object} models.APIResponse{data=models.License} "reinstated"
// @Failure 404 {object} models.APIResponse "license not found"
// @Router /api/admin/licenses/{key}/reinstate [post]
func (h *LicenseHandler) Reinstate(w http.ResponseWriter, r *http.Request) {
	lic, err := h.authority.Reinstate(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, services.OpReinstate, err)
		return
	}
	h.logStatusChange(r, lic, "License reinstated")
	writeJSON(w, http.StatusOK, models.SuccessResponse("License reinstated", lic))
}

func (h *LicenseHandler) logStatusChange(r *http.Request, lic *models.License, msg string) {
	logger.WithFields(map[string]interface{}{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"license_id": lic.ID,
		"status":     lic.Status,
		"actor":      services.ActorFromContext(r.Context()),
	}).Info("%s", msg)
}

// ListMine lists the caller's licenses
// @Summary List my licenses
// @Description Licenses owned by the authenticated user, newest first.
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=[]models.License} "licenses"
// @Failure 401 {object} models.APIResponse "authentication required"
// @Router /api/licenses [get]
func (h *LicenseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.CodedErrorResponse("Unauthorized", "UNAUTHORIZED", ""))
		return
	}

	licenses, err := h.authority.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Licenses retrieved", licenses))
}
