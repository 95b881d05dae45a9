package http

import (
	"net/http"

	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/middleware"
)

// ShopSession opens a GraphQL session for the request, seeded with the
// bearer token lifted by middleware.ShopSession. When the shop API issues a
// new token during the request it is returned in the X-Shop-Token header.
func ShopSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initial := middleware.ShopTokenFromContext(r.Context())
		sess := graphql.NewSession(initial)
		tw := &tokenWriter{ResponseWriter: w, session: sess, initial: initial}
		next.ServeHTTP(tw, r.WithContext(graphql.WithSession(r.Context(), sess)))
	})
}

// tokenWriter adds the refreshed token header just before the status line
// goes out.
type tokenWriter struct {
	http.ResponseWriter
	session     *graphql.Session
	initial     string
	wroteHeader bool
}

func (w *tokenWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if tok := w.session.Token(); tok != "" && tok != w.initial {
			w.Header().Set(middleware.ShopTokenHeader, tok)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *tokenWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *tokenWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
