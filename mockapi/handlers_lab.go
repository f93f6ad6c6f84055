package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
)

func (s *Server) ListTestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tests": s.lab.list()})
	}
}

func (s *Server) CreateTestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		test, ok := decodeLabTest(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, s.lab.create(test))
	}
}

func (s *Server) UpdateTestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		test, ok := decodeLabTest(w, r)
		if !ok {
			return
		}
		updated, found := s.lab.update(chi.URLParam(r, "id"), test)
		if !found {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteTestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.lab.delete(chi.URLParam(r, "id")) {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeLabTest(w http.ResponseWriter, r *http.Request) (resources.LabTest, bool) {
	var test resources.LabTest
	if err := decodeJSON(r, &test); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return test, false
	}
	if err := users.Validator().Struct(test); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return test, false
	}
	return test, true
}
