package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

var validate = validator.New()

// Handler serves sign-in, two-factor verification and sign-out.
type Handler struct {
	client *backend.Client
	render *web.Renderer
	logger *zap.Logger
}

func NewHandler(client *backend.Client, rd *web.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, render: rd, logger: logger}
}

// SigninView is the data of the sign-in and two-factor pages.
type SigninView struct {
	Next  string
	Email string
}

type signinForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type sessionResponse struct {
	SignedIn    bool   `json:"signedIn"`
	DisplayName string `json:"displayName,omitempty"`
	RoleID      string `json:"roleId,omitempty"`
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/signin", h.handleSigninPage)
	r.Post("/signin", h.handleSignin)
	r.Post("/signin/verify", h.handleVerify)
	r.Post("/signout", h.handleSignout)
	r.Get("/api/session", h.handleSession)
}

func (h *Handler) handleSigninPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	next := safeNext(r.URL.Query().Get("next"))
	if sess.HasToken() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, http.StatusOK, "signin", h.render.NewPage(r, "Sign in", SigninView{Next: next}))
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	form := signinForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	view := SigninView{Next: next, Email: form.Email}

	if err := validate.Struct(form); err != nil {
		h.signinError(w, r, http.StatusUnprocessableEntity, view, "Enter your email address and password.")
		return
	}

	res, err := h.client.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Info("sign-in failed", zap.Error(err))
		h.signinError(w, r, loginStatus(err), view, backend.Message(err))
		return
	}

	if res.TwoFactorRequired {
		sess.Renew()
		sess.SetPendingChallenge(res.ChallengeID)
		h.render.Render(w, r, http.StatusOK, "twofactor", h.render.NewPage(r, "Verify", view))
		return
	}
	if !complete(sess, res) {
		h.signinError(w, r, http.StatusBadGateway, view, backend.GenericMessage)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	view := SigninView{Next: next}

	challenge := sess.PendingChallenge()
	if challenge == "" {
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return
	}
	code := strings.TrimSpace(r.PostForm.Get("code"))
	if code == "" {
		h.verifyError(w, r, http.StatusUnprocessableEntity, view, "Enter the verification code.")
		return
	}

	res, err := h.client.VerifyTwoFactor(r.Context(), challenge, code)
	if err != nil {
		h.verifyError(w, r, loginStatus(err), view, backend.Message(err))
		return
	}
	if !complete(sess, res) {
		h.verifyError(w, r, http.StatusBadGateway, view, backend.GenericMessage)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) handleSignout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Renew()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	resp := sessionResponse{SignedIn: sess.HasToken()}
	if resp.SignedIn {
		if l := sess.Login(); l != nil {
			resp.DisplayName = l.DisplayName
		}
		resp.RoleID = sess.RoleID()
	}
	web.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) signinError(w http.ResponseWriter, r *http.Request, status int, view SigninView, msg string) {
	page := h.render.NewPage(r, "Sign in", view)
	page.Error = msg
	h.render.Render(w, r, status, "signin", page)
}

func (h *Handler) verifyError(w http.ResponseWriter, r *http.Request, status int, view SigninView, msg string) {
	page := h.render.NewPage(r, "Verify", view)
	page.Error = msg
	h.render.Render(w, r, status, "twofactor", page)
}

// complete stores a successful sign-in on a renewed session, so nothing of
// an earlier member carries over. It reports false when the backend
// returned no token.
func complete(sess *session.Session, res *backend.LoginResult) bool {
	token := session.NormalizeToken(res.Token)
	if token == "" {
		return false
	}
	sess.Renew()
	sess.SetToken(token)
	sess.SetLogin(&session.Login{
		UserID:      res.User.ID,
		Email:       res.User.Email,
		DisplayName: res.User.DisplayName,
		Profile:     res.Profile,
	})
	sess.SetRoleID(res.User.RoleID)
	sess.SetPendingChallenge("")
	return true
}

func loginStatus(err error) int {
	if backend.IsUnauthorized(err) {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/profile"
	}
	return next
}
