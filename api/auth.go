package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/ValentinKolb/dShop/lib/shop"
	"golang.org/x/crypto/bcrypt"
)

// credentials is the body of the register and login requests
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *credentials) validate() error {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		return badRequest("username is required")
	}
	if c.Password == "" {
		return badRequest("password is required")
	}
	return nil
}

// register creates a user and logs it in.
// The first user of the shop and users listed as admin users get the admin role.
func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var creds credentials
	if err := decodeBody(w, r, &creds); err != nil {
		return err
	}
	if err := creds.validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	role, err := s.roleFor(creds.Username)
	if err != nil {
		return err
	}

	user, err := s.shop.CreateUser(model.InsertUser{
		Username: creds.Username,
		Password: string(hash),
		Role:     role,
	})
	if err != nil {
		return err
	}

	s.startSession(w, user)
	Logger.Infof("registered user %d (%s) with role %s", user.ID, user.Username, user.Role)
	writeJSON(w, http.StatusCreated, user.Public())
	return nil
}

// login checks the password of a user and starts a session
func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var creds credentials
	if err := decodeBody(w, r, &creds); err != nil {
		return err
	}
	if err := creds.validate(); err != nil {
		return err
	}

	invalid := &httpError{Status: http.StatusUnauthorized, Message: "invalid username or password"}

	user, err := s.shop.GetUserByUsername(creds.Username)
	if shop.CodeOf(err) == shop.RetCNotFound {
		return invalid
	} else if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return invalid
		}
		return err
	}

	s.startSession(w, user)
	writeJSON(w, http.StatusOK, user.Public())
	return nil
}

// logout destroys the session of the request (if any)
func (s *Server) logout(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

// currentUser returns the logged in user
func (s *Server) currentUser(w http.ResponseWriter, _ *http.Request, user model.User) error {
	writeJSON(w, http.StatusOK, user.Public())
	return nil
}

// --------------------------------------------------------------------------
// Session helpers
// --------------------------------------------------------------------------

// roleFor returns the role a new user gets
func (s *Server) roleFor(username string) (model.Role, error) {
	if s.config.isAdminUser(username) {
		return model.RoleAdmin, nil
	}
	info, err := s.shop.GetDBInfo()
	if err != nil {
		return "", err
	}
	if info.Tables["users"].Rows == 0 {
		return model.RoleAdmin, nil
	}
	return model.RoleUser, nil
}

func (s *Server) startSession(w http.ResponseWriter, user model.User) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.sessions.Create(user.ID),
		Path:     "/",
		MaxAge:   int(s.config.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionUser loads the user of the session cookie
func (s *Server) sessionUser(r *http.Request) (model.User, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return model.User{}, errUnauthorized
	}
	userID, ok := s.sessions.Get(cookie.Value)
	if !ok {
		return model.User{}, errUnauthorized
	}

	user, err := s.shop.GetUser(userID)
	if shop.CodeOf(err) == shop.RetCNotFound {
		// the user is gone (e.g. the shard was restarted)
		s.sessions.Destroy(cookie.Value)
		return model.User{}, errUnauthorized
	}
	return user, err
}
