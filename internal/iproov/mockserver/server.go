// Package mockserver is an in-process stand-in for the iProov endpoints used
// by photo enrolment. It records every call and serves scripted responses so
// tests and local runs can exercise the whole flow without network access.
package mockserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"photoenrol/internal/platform/health"
	"photoenrol/internal/platform/middleware"
	"photoenrol/pkg/domain"
	"photoenrol/pkg/secrets"
)

// MaxRequestBytes bounds every request body, the image upload included.
const MaxRequestBytes = 32 << 20

// Endpoint identifies one of the four routes.
type Endpoint string

const (
	EndpointEnrolToken  Endpoint = "enrol_token"
	EndpointEnrolImage  Endpoint = "enrol_image"
	EndpointAccessToken Endpoint = "access_token"
	EndpointDeleteUser  Endpoint = "delete_user"
)

// Response is a scripted reply. Body is JSON-encoded unless RawBody is set.
type Response struct {
	Status  int
	Body    any
	RawBody string
}

// Call is what the server saw for one request.
type Call struct {
	Endpoint  Endpoint
	Method    string
	Path      string
	Header    http.Header
	JSON      map[string]any
	Form      url.Values
	FileName  string
	FileSize  int
	BasicUser string
	BasicPass string
	PathParam string
}

// Credentials, when set, are checked before a default response is served.
type Credentials struct {
	APIKey        string
	Secret        string
	OAuthUsername string
	OAuthPassword string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithCredentials makes default responses reject mismatched credentials.
// The secret and OAuth password are kept only as bcrypt hashes; a value
// bcrypt cannot hash never matches.
func WithCredentials(c Credentials) Option {
	return func(s *Server) {
		s.creds = &credentialCheck{
			apiKey:        c.APIKey,
			oauthUsername: c.OAuthUsername,
			secretHash:    hashCredential(c.Secret),
			passwordHash:  hashCredential(c.OAuthPassword),
		}
	}
}

type credentialCheck struct {
	apiKey        string
	oauthUsername string
	secretHash    string
	passwordHash  string
}

func hashCredential(plain string) string {
	if plain == "" {
		return ""
	}
	hash, err := secrets.Hash(plain, bcrypt.MinCost)
	if err != nil {
		return "!"
	}
	return hash
}

func credentialMatches(plain, hash string) bool {
	if hash == "" {
		return plain == ""
	}
	return secrets.Matches(plain, hash)
}

func (c *credentialCheck) serviceProvider(apiKey, secret string) bool {
	return apiKey == c.apiKey && credentialMatches(secret, c.secretHash)
}

func (c *credentialCheck) oauthClient(spKey, username, password string) bool {
	return spKey == c.apiKey && username == c.oauthUsername && credentialMatches(password, c.passwordHash)
}

// Server is safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	scripted map[Endpoint]Response
	issued   map[string]string // enrol token -> user id
	enrolled map[string]bool
	creds    *credentialCheck
	logger   *slog.Logger
	version  string
	signer   *tokenSigner
	router   chi.Router
}

// New builds a Server with its routes mounted.
func New(opts ...Option) *Server {
	s := &Server{
		scripted: make(map[Endpoint]Response),
		issued:   make(map[string]string),
		enrolled: make(map[string]bool),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:  "dev",
		signer:   newTokenSigner(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(s.logger))
	r.Use(middleware.BodyLimit(MaxRequestBytes))
	health.New("mock-iproov", s.version, func() int { return len(s.Calls()) }).Register(r)
	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/claim/enrol/token", s.handleEnrolToken)
		r.Post("/claim/enrol/image", s.handleEnrolImage)
		r.Post("/{spKey}/access_token", s.handleAccessToken)
		r.Delete("/users/{username}", s.handleDeleteUser)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Script overrides the response for an endpoint until Reset.
func (s *Server) Script(ep Endpoint, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripted[ep] = resp
}

// Reset clears scripted responses, recorded calls and issued state.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.scripted = make(map[Endpoint]Response)
	s.issued = make(map[string]string)
	s.enrolled = make(map[string]bool)
}

// Calls returns a copy of the recorded calls in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Sequence returns the endpoints hit, in order.
func (s *Server) Sequence() []Endpoint {
	calls := s.Calls()
	out := make([]Endpoint, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Endpoint)
	}
	return out
}

func (s *Server) record(c Call) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	resp, ok := s.scripted[c.Endpoint]
	return resp, ok
}

func (s *Server) handleEnrolToken(w http.ResponseWriter, r *http.Request) {
	call := newCall(EndpointEnrolToken, r)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.record(call)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request", "error_description": "body is not JSON"})
		return
	}
	call.JSON = body
	if scripted, ok := s.record(call); ok {
		writeScripted(w, scripted)
		return
	}

	apiKey, _ := body["api_key"].(string)
	secret, _ := body["secret"].(string)
	if s.creds != nil && !s.creds.serviceProvider(apiKey, secret) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_key_or_secret"})
		return
	}
	userID, _ := body["user_id"].(string)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_user_id"})
		return
	}

	token, err := secrets.Generate()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}
	s.mu.Lock()
	s.issued[token] = userID
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "pod": "mock", "user_id": userID})
}

func (s *Server) handleEnrolImage(w http.ResponseWriter, r *http.Request) {
	call := newCall(EndpointEnrolImage, r)
	if err := r.ParseMultipartForm(MaxRequestBytes); err != nil {
		s.record(call)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request", "error_description": "body is not multipart"})
		return
	}
	call.Form = r.MultipartForm.Value
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		call.FileName = files[0].Filename
		call.FileSize = int(files[0].Size)
	}
	if scripted, ok := s.record(call); ok {
		writeScripted(w, scripted)
		return
	}

	if s.creds != nil && !s.creds.serviceProvider(r.FormValue("api_key"), r.FormValue("secret")) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_key_or_secret"})
		return
	}
	if call.FileSize == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_image"})
		return
	}

	s.mu.Lock()
	userID, ok := s.issued[r.FormValue("token")]
	if ok {
		delete(s.issued, r.FormValue("token"))
		s.enrolled[userID] = true
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid_token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user_id": userID})
}

func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	call := newCall(EndpointAccessToken, r)
	call.PathParam = chi.URLParam(r, "spKey")
	if err := r.ParseForm(); err == nil {
		call.Form = r.PostForm
	}
	if scripted, ok := s.record(call); ok {
		writeScripted(w, scripted)
		return
	}

	if call.Form.Get("grant_type") != domain.GrantTypeClientCredentials.String() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	if s.creds != nil {
		if !s.creds.oauthClient(call.PathParam, call.BasicUser, call.BasicPass) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
			return
		}
	}
	accessToken, err := s.signer.issue(call.PathParam, call.BasicUser)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(AccessTokenTTL.Seconds()),
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	call := newCall(EndpointDeleteUser, r)
	call.PathParam = chi.URLParam(r, "username")
	if scripted, ok := s.record(call); ok {
		writeScripted(w, scripted)
		return
	}

	authorization := r.Header.Get("Authorization")
	if authorization == "" || (s.creds != nil && !s.signer.verify(authorization)) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	s.mu.Lock()
	found := s.enrolled[call.PathParam]
	delete(s.enrolled, call.PathParam)
	s.mu.Unlock()
	if !found && s.creds != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": call.PathParam, "name": call.PathParam, "status": "Deleted"})
}

func newCall(ep Endpoint, r *http.Request) Call {
	c := Call{
		Endpoint: ep,
		Method:   r.Method,
		Path:     r.URL.Path,
		Header:   r.Header.Clone(),
	}
	c.BasicUser, c.BasicPass, _ = r.BasicAuth()
	return c
}

func writeScripted(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.RawBody != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp.RawBody)
		return
	}
	writeJSON(w, status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
