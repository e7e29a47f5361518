package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civic-relay/internal/application/otp"
	"github.com/civic-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOTPService struct{ mock.Mock }

func (m *mockOTPService) Send(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockOTPService) Resend(ctx context.Context, email, tok string) error {
	return m.Called(ctx, email, tok).Error(0)
}

func (m *mockOTPService) Verify(ctx context.Context, tok, code string) (*otp.VerifyResult, error) {
	args := m.Called(ctx, tok, code)
	if r, _ := args.Get(0).(*otp.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestOTPSend_ReturnsToken(t *testing.T) {
	svc := &mockOTPService{}
	svc.On("Send", mock.Anything, "a@b.com").Return("abcdef0123456789abcdef01", nil)

	rec := postJSON(t, NewOTPHandler(svc).Send, `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env OTPEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.OTPRequired)
	assert.Equal(t, "abcdef0123456789abcdef01", env.OTPToken)
}

func TestOTPSend_InvalidBody(t *testing.T) {
	rec := postJSON(t, NewOTPHandler(&mockOTPService{}).Send, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOTPSend_RateLimited(t *testing.T) {
	svc := &mockOTPService{}
	svc.On("Send", mock.Anything, "a@b.com").
		Return("", fmt.Errorf("too many codes requested: %w", domain.ErrRateLimited))

	rec := postJSON(t, NewOTPHandler(svc).Send, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestOTPSend_DeliveryFailure(t *testing.T) {
	svc := &mockOTPService{}
	svc.On("Send", mock.Anything, "a@b.com").
		Return("", fmt.Errorf("smtp down: %w", domain.ErrDelivery))

	rec := postJSON(t, NewOTPHandler(svc).Send, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOTPResend_OK(t *testing.T) {
	svc := &mockOTPService{}
	svc.On("Resend", mock.Anything, "a@b.com", "tok").Return(nil)

	rec := postJSON(t, NewOTPHandler(svc).Resend, `{"email":"a@b.com","otpToken":"tok"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "OTP resent", env.Message)
}

func TestOTPVerify_Success(t *testing.T) {
	svc := &mockOTPService{}
	svc.On("Verify", mock.Anything, "tok", "123456").
		Return(&otp.VerifyResult{Email: "a@b.com", Bearer: "jwt"}, nil)

	rec := postJSON(t, NewOTPHandler(svc).Verify, `{"otpToken":"tok","code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env OTPEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "jwt", env.Bearer)
	assert.Contains(t, rec.Body.String(), `"bearer":"jwt"`)
}

func TestOTPVerify_CodePassedThroughFromBody(t *testing.T) {
	svc := &mockOTPService{}
	var got string
	svc.On("Verify", mock.Anything, "tok", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { got = args.String(2) }).
		Return(&otp.VerifyResult{Email: "a@b.com"}, nil)

	rec := postJSON(t, NewOTPHandler(svc).Verify, `{"otpToken":"tok","code":"654321"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "654321", got)
}

func TestOTPVerify_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"expired", fmt.Errorf("code expired: %w", domain.ErrExpired), http.StatusBadRequest},
		{"invalid code", fmt.Errorf("wrong code: %w", domain.ErrInvalidCode), http.StatusBadRequest},
		{"unknown token", fmt.Errorf("no entry: %w", domain.ErrNotFound), http.StatusBadRequest},
		{"locked", fmt.Errorf("too many attempts: %w", domain.ErrTooManyAttempts), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOTPService{}
			svc.On("Verify", mock.Anything, "tok", "000000").Return(nil, tc.err)

			rec := postJSON(t, NewOTPHandler(svc).Verify, `{"otpToken":"tok","code":"000000"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
