package server

import (
	"net/http"
	"net/url"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/logging"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/oauth"
	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/types"
)

func authorizePath(platform string) string {
	return "/oauth/authorize/" + url.PathEscape(platform)
}

func (s *APIServer) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.Flow.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make([]types.PlatformInfo, 0, len(statuses))
	for _, st := range statuses {
		resp = append(resp, types.PlatformInfo{
			ID:           st.ID,
			Name:         st.Name,
			Connected:    st.Connected,
			Configured:   st.Configured,
			AuthorizeURL: authorizePath(st.ID),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handlePlatformStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.Flow.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		resp[st.ID] = st.Connected
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	redirect, err := s.Flow.BeginAuthorization(r.Context(), platform)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *APIServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	q := r.URL.Query()
	_, err := s.Flow.CompleteAuthorization(r.Context(), platform, oauth.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		s.Logger.Warn("authorization callback failed", logging.Platform(platform), logging.RequestID(RequestIDFromContext(r.Context())))
		s.writeError(w, r, err)
		return
	}

	target, err := url.Parse(s.SuccessRedirect)
	if err != nil || s.SuccessRedirect == "" {
		target = &url.URL{Path: "/"}
	}
	tq := target.Query()
	tq.Set("connected", platform)
	target.RawQuery = tq.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (s *APIServer) handleSetup(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	var req types.SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	redirectURI := ""
	if s.CallbackURL != nil {
		redirectURI = s.CallbackURL(platform)
	}
	if err := s.Flow.Setup(r.Context(), platform, req.ClientID, req.ClientSecret, redirectURI); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Logger.Info("platform configured", logging.Platform(platform))
	writeJSON(w, http.StatusOK, types.SetupResponse{Success: true, AuthURL: authorizePath(platform)})
}
