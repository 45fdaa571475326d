package api

import (
	"context"
	"errors"
	"github.com/IlyasAtabaev731/finance-records/internal/config"
	"github.com/IlyasAtabaev731/finance-records/internal/domain/models"
	"github.com/IlyasAtabaev731/finance-records/internal/lib/jwt"
	"github.com/IlyasAtabaev731/finance-records/internal/lib/password"
	"github.com/IlyasAtabaev731/finance-records/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

type Storage interface {
	SaveUser(ctx context.Context, username string, passHash []byte) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	TransactionsByUser(ctx context.Context, userID int) ([]models.Transaction, error)
	SaveTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t models.Transaction, ownerOnly bool) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string, userID int, ownerOnly bool) (*models.Transaction, error)
}

type APIServer struct {
	config    *config.Config
	logger    *slog.Logger
	server    *http.Server
	storage   Storage
	jwtSecret []byte
	validate  *validator.Validate
}

func New(config *config.Config, logger *slog.Logger, storage Storage, jwtSecret []byte) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		storage:   storage,
		jwtSecret: jwtSecret,
		validate:  newValidator(),
	}
	s.configureRouter()

	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler exposes the fully wrapped router.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.Use(s.requestID, s.logRequests, metrics)

	router.HandleFunc("/register", s.registerHandler()).Methods(http.MethodPost)
	router.HandleFunc("/login", s.loginHandler()).Methods(http.MethodPost)

	router.HandleFunc("/transaction", s.authenticate(s.addTransactionHandler())).Methods(http.MethodPost)
	router.HandleFunc("/transaction/byUser", s.authenticate(s.transactionsByUserHandler())).Methods(http.MethodGet)
	router.HandleFunc("/transaction/{id}", s.authenticate(s.updateTransactionHandler())).Methods(http.MethodPut)
	router.HandleFunc("/transaction/{id}", s.authenticate(s.deleteTransactionHandler())).Methods(http.MethodDelete)

	router.HandleFunc("/health", s.healthHandler()).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.CORS.AllowedOrigins),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
	)

	s.server.Handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)(cors(router))
}

type AuthRequest struct {
	Username string `json:"username" validate:"required,max=20"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

const errBadCredentials = "Username or password is incorrect!"

func (s *APIServer) registerHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.requestLogger(r)

		var req AuthRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		passHash, err := password.Hash(req.Password)
		if err != nil {
			log.Error("Failed to hash password", "error", err)
			s.writeError(w, r, http.StatusInternalServerError, errInternal)
			return
		}

		user, err := s.storage.SaveUser(r.Context(), req.Username, passHash)
		if err != nil {
			log.Error("Failed to save user", "error", err)
			s.writeError(w, r, http.StatusInternalServerError, errInternal)
			return
		}

		log.Info("Registered new user", slog.Int("user_id", user.ID), slog.String("username", user.Username))

		s.writeToken(w, r, user, http.StatusCreated)
	}
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.requestLogger(r)

		var req AuthRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		user, err := s.storage.GetUser(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				s.writeError(w, r, http.StatusNotFound, errBadCredentials)
				return
			}
			log.Error("Failed to get user", "error", err)
			s.writeError(w, r, http.StatusInternalServerError, errInternal)
			return
		}

		if err := password.Compare([]byte(user.PasswordHash), req.Password); err != nil {
			log.Debug("Password mismatch", slog.Int("user_id", user.ID))
			s.writeError(w, r, http.StatusNotFound, errBadCredentials)
			return
		}

		s.writeToken(w, r, user, http.StatusOK)
	}
}

func (s *APIServer) writeToken(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := jwt.NewToken(user, s.jwtSecret, s.config.JWT.TTL)
	if err != nil {
		s.requestLogger(r).Error("Failed to sign token", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, errInternal)
		return
	}

	s.writeJSON(w, r, status, AuthResponse{Token: token})
}

type ctxKey string

const userIDKey ctxKey = "user_id"

// authenticate runs before every protected handler; rejected requests never reach storage.
func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			s.writeAuthError(w, r, http.StatusUnauthorized, "Missing Authorization Header")
			return
		}

		parts := strings.Split(tokenHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.writeAuthError(w, r, http.StatusUnprocessableEntity, "Bad Authorization header. Expected value 'Bearer <JWT>'")
			return
		}

		uid, err := jwt.ParseToken(parts[1], s.jwtSecret)
		if err != nil {
			s.requestLogger(r).Debug("Rejected token", "error", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				s.writeAuthError(w, r, http.StatusUnauthorized, "Token has expired")
				return
			}
			s.writeAuthError(w, r, http.StatusUnprocessableEntity, "Invalid token")
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), userIDKey, uid))
		next(w, r)
	}
}

func userID(r *http.Request) int {
	uid, _ := r.Context().Value(userIDKey).(int)
	return uid
}

func (s *APIServer) healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
