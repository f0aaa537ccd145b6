package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"panellicense/logger"
	"panellicense/middleware"
	"panellicense/models"
	"panellicense/services"
	"panellicense/utils"
)

// LicenseHandler exposes the license authority over HTTP.
type LicenseHandler struct {
	authority *services.LicenseAuthority
	validate  *validator.Validate
	signer    *utils.ResponseSigner
}

// NewLicenseHandler creates the handler. A nil signer leaves validation responses unsigned.
func NewLicenseHandler(authority *services.LicenseAuthority, signer *utils.ResponseSigner) *LicenseHandler {
	return &LicenseHandler{
		authority: authority,
		validate:  newValidator(),
		signer:    signer,
	}
}

// Activate binds a license to the calling installation
// @Summary Activate a license
// @Description Binds the license to a domain and hardware fingerprint. Succeeds at most once per key.
// @Tags client
// @Accept json
// @Produce json
// @Param request body models.ActivateRequest true "activation request"
// @Success 200 {object} models.APIResponse{data=models.License} "activated"
// @Failure 400 {object} models.APIResponse "invalid request"
// @Failure 403 {object} models.APIResponse "suspended or domain mismatch"
// @Failure 404 {object} models.APIResponse "license not found"
// @Failure 409 {object} models.APIResponse "already activated"
// @Failure 410 {object} models.APIResponse "expired"
// @Failure 429 {object} models.APIResponse "rate limited"
// @Router /api/license/activate [post]
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req models.ActivateRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		status, body := h.rejectRequest(r, services.OpActivate, err)
		writeJSON(w, status, body)
		return
	}

	lic, err := h.authority.Activate(r.Context(), services.BindingParams{
		LicenseKey: req.LicenseKey,
		Domain:     req.Domain,
		HardwareID: req.HardwareID,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		writeError(w, r, services.OpActivate, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"license_id": lic.ID,
		"tier":       lic.Tier,
	}).Info("License activated")
	writeJSON(w, http.StatusOK, models.SuccessResponse("License activated", lic))
}

// Validate checks whether a license is currently usable
// @Summary Validate a license
// @Description Checks suspension, expiry with grace period and the domain and hardware binding. Never mutates the license.
// @Description When response signing is enabled the body is signed in the X-License-Signature header.
// @Tags client
// @Accept json
// @Produce json
// @Param request body models.ValidateRequest true "validation request"
// @Success 200 {object} models.APIResponse{data=models.ValidationResult} "valid"
// @Failure 400 {object} models.APIResponse "invalid request"
// @Failure 403 {object} models.APIResponse "suspended or binding mismatch"
// @Failure 404 {object} models.APIResponse "license not found"
// @Failure 410 {object} models.APIResponse "expired"
// @Failure 429 {object} models.APIResponse "rate limited"
// @Router /api/license/validate [post]
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		status, body := h.rejectRequest(r, services.OpValidate, err)
		h.writeSigned(w, status, body)
		return
	}

	res, err := h.authority.Validate(r.Context(), services.BindingParams{
		LicenseKey: req.LicenseKey,
		Domain:     req.Domain,
		HardwareID: req.HardwareID,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		status, body := errorResponse(err)
		logger.WithFields(map[string]interface{}{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"code":       body.Code,
		}).Debug("License validation rejected")
		h.writeSigned(w, status, body)
		return
	}

	message := "License is valid"
	if res.GraceActive {
		message = "License expired, grace period active"
	}
	h.writeSigned(w, http.StatusOK, models.SuccessResponse(message, res))
}

// rejectRequest counts a request body that failed decoding or validation against op and logs it.
func (h *LicenseHandler) rejectRequest(r *http.Request, op string, err error) (int, models.APIResponse) {
	h.authority.RecordRejection(op, err)
	return logError(r, op, err)
}

// writeSigned writes body and, when signing is enabled, its HMAC in the signature header.
func (h *LicenseHandler) writeSigned(w http.ResponseWriter, status int, body interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logger.Error("Failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if sig := h.signer.Sign(buf.Bytes()); sig != "" {
		w.Header().Set(utils.SignatureHeader, sig)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
