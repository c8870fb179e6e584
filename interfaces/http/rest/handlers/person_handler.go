package handlers

import (
	"net/http"

	"filegraph/application/services"
	"filegraph/pkg/common"
	pkgerrors "filegraph/pkg/errors"
	"filegraph/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PersonHandler handles person-related HTTP requests
type PersonHandler struct {
	service *services.InteractionService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewPersonHandler creates a new person handler
func NewPersonHandler(service *services.InteractionService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// CreatePersonRequest represents the request body for creating a person
type CreatePersonRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreatePerson handles POST /persons
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	person, err := h.service.CreatePerson(r.Context(), req.Name, req.Email)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toPersonResponse(person))
}

// GetPerson handles GET /persons/{name}
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	person, err := h.service.GetPerson(r.Context(), name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toPersonResponse(person))
}

// ListPersons handles GET /persons
func (h *PersonHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.service.ListPersons(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toPersonResponses(persons))
}

// ListFiles handles GET /persons/{name}/files
func (h *PersonHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	files, err := h.service.ListFiles(r.Context(), name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toFileResponses(files))
}
