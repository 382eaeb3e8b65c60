package controllers

import (
	"net/http"

	"inkpress/app/logger"
	"inkpress/app/middleware"
	"inkpress/app/services"
)

// AuthController handles registration, login and the current account
type AuthController struct {
	accounts *services.AccountService
	log      *logger.Logger
}

func NewAuthController(accounts *services.AccountService, log *logger.Logger) *AuthController {
	return &AuthController{accounts: accounts, log: log.With("controller", "auth")}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, r, ac.log, err)
		return
	}
	session, err := ac.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		sendError(w, r, ac.log, err)
		return
	}
	sendData(w, http.StatusCreated, session)
}

func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, r, ac.log, err)
		return
	}
	session, err := ac.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		sendError(w, r, ac.log, err)
		return
	}
	sendData(w, http.StatusOK, session)
}

func (ac *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := ac.accounts.Me(r.Context(), middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, ac.log, err)
		return
	}
	sendData(w, http.StatusOK, profile)
}
