package api

import (
	"errors"
	"net/http"

	"serwer-dokumentow/internal/tree"
)

// writeError maps tree error kinds onto HTTP statuses. Anything unknown is
// logged and reported as 500 without details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tree.ErrUnauthenticated):
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	case errors.Is(err, tree.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, tree.ErrFolderNotFound), errors.Is(err, tree.ErrDocumentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tree.ErrCircularMove):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, tree.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("błąd obsługi żądania",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
