package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/florancealade/zephyryx-storage-keep/internal/handlers"
	"github.com/florancealade/zephyryx-storage-keep/internal/mocks"
	"github.com/florancealade/zephyryx-storage-keep/internal/services"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *mocks.AuthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "created",
			body: `{"username":"alice","password":"password123"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, "alice", "password123").Return(nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"ok":true`,
		},
		{
			name:           "bad json",
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "empty fields",
			body:           `{"username":"","password":""}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "username and password are required",
		},
		{
			name: "username taken",
			body: `{"username":"alice","password":"password123"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, "alice", "password123").Return(services.ErrUsernameTaken).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "username_taken",
		},
		{
			name: "weak password",
			body: `{"username":"alice","password":"short"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, "alice", "short").Return(services.ErrWeakPassword).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "malformed_input",
		},
		{
			name: "internal failure",
			body: `{"username":"alice","password":"password123"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, "alice", "password123").Return(errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.AuthService)
			if tt.mockSetup != nil {
				tt.mockSetup(svc)
			}
			h := handlers.NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Register(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *mocks.AuthService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "token issued",
			body: `{"username":"alice","password":"password123"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Login", mock.Anything, "alice", "password123").Return("signed.jwt.token", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"signed.jwt.token"`,
		},
		{
			name: "bad credentials",
			body: `{"username":"alice","password":"nope-nope"}`,
			mockSetup: func(m *mocks.AuthService) {
				m.On("Login", mock.Anything, "alice", "nope-nope").Return("", services.ErrInvalidCredentials).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid username or password",
		},
		{
			name:           "unknown field",
			body:           `{"username":"alice","password":"x","extra":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.AuthService)
			if tt.mockSetup != nil {
				tt.mockSetup(svc)
			}
			h := handlers.NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Login(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
