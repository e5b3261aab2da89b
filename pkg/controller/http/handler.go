package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/usecase"
	"github.com/plotline-dev/plotline/pkg/utils/errutil"
)

type versionResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type propertyIDResponse struct {
	PropertyID types.PropertyID `json:"propertyId"`
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

type setRoleRequest struct {
	Role types.Role `json:"role"`
}

func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(errBadRequest, "invalid JSON body", goerr.V("reason", err.Error()))
	}
	return nil
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formKey := types.FormKey(chi.URLParam(r, "formKey"))

	schema, err := s.uc.Schema.GetSchema(ctx, formKey, r.URL.Query().Get("version"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	// admins edit the full definition; everyone else gets what they may fill
	if p, err := auth.PrincipalFromContext(ctx); err == nil && !p.IsAdmin() {
		schema = schema.ForRole(p.Role)
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, schema)
}

func (s *Server) saveSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formKey := types.FormKey(chi.URLParam(r, "formKey"))

	var schema model.FormSchema
	if err := decodeJSON(r, w, &schema); err != nil {
		writeError(ctx, w, err)
		return
	}
	if schema.FormKey != "" && schema.FormKey != formKey {
		writeError(ctx, w, goerr.Wrap(errBadRequest, "form key in body does not match path",
			goerr.V("path", formKey), goerr.V("body", schema.FormKey)))
		return
	}
	schema.FormKey = formKey

	saved, err := s.uc.Schema.SaveSchema(ctx, &schema)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusCreated, versionResponse{ID: saved.ID, Version: saved.Version})
}

func (s *Server) listSchemaVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formKey := types.FormKey(chi.URLParam(r, "formKey"))

	versions, err := s.uc.Schema.ListVersions(ctx, formKey)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) listFormKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keys, err := s.uc.Schema.ListFormKeys(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, map[string]any{"formKeys": keys})
}

func (s *Server) validateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req usecase.ValidateStepRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.FormKey = types.FormKey(chi.URLParam(r, "formKey"))

	errs, err := s.uc.Schema.ValidateStep(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

func (s *Server) submitProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req usecase.SubmissionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	property, err := s.uc.Property.Submit(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if req.PropertyID == "" {
		status = http.StatusCreated
	}
	errutil.WriteJSON(ctx, w, status, propertyIDResponse{PropertyID: property.ID})
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := types.PropertyID(chi.URLParam(r, "propertyID"))

	property, err := s.uc.Property.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, property)
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := intParam(q.Get("page"))
	if err != nil {
		writeError(ctx, w, goerr.Wrap(err, "invalid page"))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(ctx, w, goerr.Wrap(err, "invalid limit"))
		return
	}

	result, err := s.uc.Property.List(ctx, usecase.ListPropertiesRequest{
		Query: q.Get("q"),
		Sort:  interfaces.ParsePropertySort(q.Get("sort")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, result)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, goerr.Wrap(errBadRequest, "not a non-negative integer", goerr.V("value", s))
	}
	return n, nil
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := s.uc.User.Me(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, profile)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))

	profiles, err := s.uc.User.ListUsers(ctx, pending)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, map[string]any{"users": profiles})
}

func (s *Server) approveUser(w http.ResponseWriter, r *http.Request) {
	s.modifyUser(w, r, s.uc.User.Approve)
}

func (s *Server) banUser(w http.ResponseWriter, r *http.Request) {
	s.modifyUser(w, r, s.uc.User.Ban)
}

func (s *Server) unbanUser(w http.ResponseWriter, r *http.Request) {
	s.modifyUser(w, r, s.uc.User.Unban)
}

func (s *Server) setUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setRoleRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	profile, err := s.uc.User.SetRole(ctx, types.UserID(chi.URLParam(r, "userID")), req.Role)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, profile)
}

func (s *Server) modifyUser(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id types.UserID) (*model.Profile, error)) {
	ctx := r.Context()

	profile, err := op(ctx, types.UserID(chi.URLParam(r, "userID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, profile)
}
