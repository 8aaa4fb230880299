// internal/app/features/domains/domains.go
package domains

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	domainstore "github.com/intellipmo/intellipmo/internal/app/store/domains"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/normalize"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 1000
)

type domainInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// clean trims both fields and checks their lengths. Text is stored as typed;
// respond.JSON escapes it on the way out.
func (in domainInput) clean() (string, string, error) {
	rawName := strings.TrimSpace(in.Name)
	desc := normalize.Text(in.Description)
	switch {
	case rawName == "":
		return "", "", apierr.ErrInvalidInput.WithMessage("Domain name is required.")
	case utf8.RuneCountInString(rawName) > maxNameLen:
		return "", "", apierr.ErrInvalidInput.WithMessage("Domain name must be at most 100 characters.")
	case utf8.RuneCountInString(desc) > maxDescriptionLen:
		return "", "", apierr.ErrInvalidInput.WithMessage("Domain description must be at most 1000 characters.")
	}
	return normalize.Name(rawName), desc, nil
}

// ServeList handles GET /api/domains.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list domains")
	defer cancel()

	list, err := h.Domains.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, "list domains", apierr.Internal(err))
		return
	}
	if list == nil {
		list = []models.Domain{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"domains": list})
}

// HandleCreate handles POST /api/domains.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in domainInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "create domain", err)
		return
	}
	name, desc, err := in.clean()
	if err != nil {
		respond.Error(w, r, h.Log, "create domain", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create domain")
	defer cancel()

	d, err := h.Domains.Create(ctx, models.Domain{Name: name, Description: desc})
	if errors.Is(err, domainstore.ErrDuplicateDomain) {
		respond.Error(w, r, h.Log, "create domain", apierr.ErrDuplicateDomain)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, "create domain", apierr.Internal(err))
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Domain created successfully.",
		"domain":  d,
	})
}

// HandleUpdate handles PUT /api/domains/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, "update domain", apierr.ErrInvalidInput.WithMessage("Invalid domain id."))
		return
	}
	var in domainInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "update domain", err)
		return
	}
	name, desc, err := in.clean()
	if err != nil {
		respond.Error(w, r, h.Log, "update domain", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update domain")
	defer cancel()

	d, err := h.Domains.Update(ctx, id, name, desc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, "update domain", apierr.ErrDomainNotFound)
		return
	case errors.Is(err, domainstore.ErrDuplicateDomain):
		respond.Error(w, r, h.Log, "update domain", apierr.ErrDuplicateDomain)
		return
	case err != nil:
		respond.Error(w, r, h.Log, "update domain", apierr.Internal(err))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Domain updated successfully.",
		"domain":  d,
	})
}
