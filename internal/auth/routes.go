package auth

import "net/http"

// Routes registers the account endpoints. Join and login also pass through
// throttle; the /members/me routes need auth.
func (h *Handler) Routes(mux *http.ServeMux, auth, jsonBody, throttle func(http.Handler) http.Handler) {
	mux.Handle("POST /join", throttle(jsonBody(http.HandlerFunc(h.Join))))
	mux.Handle("POST /login", throttle(jsonBody(http.HandlerFunc(h.Login))))
	mux.Handle("POST /auth/refresh", jsonBody(http.HandlerFunc(h.Refresh)))
	mux.Handle("POST /auth/logout", jsonBody(http.HandlerFunc(h.Logout)))
	mux.Handle("POST /auth/logout-all", auth(http.HandlerFunc(h.LogoutAll)))
	mux.Handle("GET /members/me", auth(http.HandlerFunc(h.Me)))
	mux.Handle("PATCH /members/me", jsonBody(auth(http.HandlerFunc(h.PatchMe))))
	mux.Handle("DELETE /members/me", auth(http.HandlerFunc(h.DeleteMe)))
}
