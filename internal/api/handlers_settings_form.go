package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/crypto-dashboard/internal/controller"
	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/types"
)

// FormResponse is the settings page state after an edit
type FormResponse struct {
	State           controller.FormState `json:"state"`
	Status          types.SaveStatus     `json:"status"`
	PasswordPending bool                 `json:"passwordPending"`
}

// FormLoadResponse is the settings page state after a load
type FormLoadResponse struct {
	Source controller.LoadSource `json:"source"`
	FormResponse
}

// FormSaveResponse is the outcome of a save
type FormSaveResponse struct {
	Status        types.SaveStatus    `json:"status"`
	Succeeded     []string            `json:"succeeded"`
	SavedAt       time.Time           `json:"savedAt"`
	Degraded      bool                `json:"degraded"`
	BackendError  *types.ServiceError `json:"backendError,omitempty"`
	SnapshotError *types.ServiceError `json:"snapshotError,omitempty"`
}

// FormStatusResponse is the save status indicator
type FormStatusResponse struct {
	Status    types.SaveStatus `json:"status"`
	ChangedAt time.Time        `json:"changedAt"`
}

// formController returns the settings controller of the session user. A
// controller created by this call is loaded first, like a page mount.
func (s *Server) formController(w http.ResponseWriter, r *http.Request) (*controller.SettingsController, bool) {
	sess, err := session.Require(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}

	c, created := s.settings.Get(sess.Email)
	if created {
		if _, err := c.Load(r.Context()); err != nil {
			respondServiceError(w, r, err)
			return nil, false
		}
	}
	return c, true
}

func formResponse(c *controller.SettingsController) FormResponse {
	return FormResponse{
		State:           c.State(),
		Status:          c.Status(),
		PasswordPending: c.PasswordPending(),
	}
}

// respondFormEdit sends the state after an edit, or the edit's error
func (s *Server) respondFormEdit(w http.ResponseWriter, r *http.Request, c *controller.SettingsController, err error) {
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, formResponse(c))
}

// handleLoadForm handles GET /api/settings/form - load the page from the
// backend, falling back to the snapshot
func (s *Server) handleLoadForm(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Require(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	c, _ := s.settings.Get(sess.Email)
	result, err := c.Load(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FormLoadResponse{
		Source: result.Source,
		FormResponse: FormResponse{
			State:           result.State,
			Status:          c.Status(),
			PasswordPending: c.PasswordPending(),
		},
	})
}

// handleReplaceForm handles PUT /api/settings/form - replace the whole form state
func (s *Server) handleReplaceForm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var state controller.FormState
	if err := parseJSONBody(r, &state); err != nil {
		respondInvalidBody(w, err)
		return
	}

	s.respondFormEdit(w, r, c, c.ReplaceForm(state))
}

// handleUpdateFormProfile handles PATCH /api/settings/form/profile
func (s *Server) handleUpdateFormProfile(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var fields map[string]string
	if err := parseJSONBody(r, &fields); err != nil {
		respondInvalidBody(w, err)
		return
	}

	s.respondFormEdit(w, r, c, c.UpdateProfile(fields))
}

// handleUpdateFormNotifications handles PATCH /api/settings/form/notifications
func (s *Server) handleUpdateFormNotifications(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var toggles map[string]bool
	if err := parseJSONBody(r, &toggles); err != nil {
		respondInvalidBody(w, err)
		return
	}

	s.respondFormEdit(w, r, c, c.SetNotifications(toggles))
}

// handleUpdateFormSecurity handles PATCH /api/settings/form/security
func (s *Server) handleUpdateFormSecurity(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var update controller.SecurityUpdate
	if err := parseJSONBody(r, &update); err != nil {
		respondInvalidBody(w, err)
		return
	}

	s.respondFormEdit(w, r, c, c.UpdateSecurity(update))
}

// handleUpdateFormPreferences handles PATCH /api/settings/form/preferences
func (s *Server) handleUpdateFormPreferences(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var update controller.PreferencesUpdate
	if err := parseJSONBody(r, &update); err != nil {
		respondInvalidBody(w, err)
		return
	}

	s.respondFormEdit(w, r, c, c.UpdatePreferences(update))
}

// handleAddFormPaymentMethod handles POST /api/settings/form/payment-methods
func (s *Server) handleAddFormPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	var in controller.PaymentMethodInput
	if r.ContentLength != 0 {
		if err := parseJSONBody(r, &in); err != nil {
			respondInvalidBody(w, err)
			return
		}
	}

	method, err := c.AddPaymentMethod(in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, method)
}

// paymentMethodID parses the page-local payment method id of the route
func paymentMethodID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidParameterError("id", "must be an integer")
	}
	return id, nil
}

// handleRemoveFormPaymentMethod handles DELETE /api/settings/form/payment-methods/{id}
func (s *Server) handleRemoveFormPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	id, err := paymentMethodID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.respondFormEdit(w, r, c, c.RemovePaymentMethod(id))
}

// handleSetDefaultFormPaymentMethod handles POST /api/settings/form/payment-methods/{id}/default
func (s *Server) handleSetDefaultFormPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	id, err := paymentMethodID(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.respondFormEdit(w, r, c, c.SetDefaultPaymentMethod(id))
}

// handleSaveForm handles POST /api/settings/form/save. A save that reached
// only the snapshot store is still a success.
func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	result := c.Save(r.Context())

	response := FormSaveResponse{
		Status:    result.Status,
		Succeeded: result.Succeeded,
		SavedAt:   result.SavedAt,
		Degraded:  result.Degraded(),
	}
	if response.Succeeded == nil {
		response.Succeeded = []string{}
	}

	statusCode := http.StatusOK
	if result.BackendErr != nil {
		_, response.BackendError = publicError(result.BackendErr)
	}
	if result.SnapshotErr != nil {
		statusCode, response.SnapshotError = publicError(result.SnapshotErr)
	}

	respondJSON(w, statusCode, response)
}

// handleFormStatus handles GET /api/settings/form/status
func (s *Server) handleFormStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.formController(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, FormStatusResponse{
		Status:    c.Status(),
		ChangedAt: c.StatusChangedAt(),
	})
}
