package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploader struct{ mock.Mock }

func (m *mockUploader) UploadBase64(ctx context.Context, key, b64Data string) (string, error) {
	args := m.Called(ctx, key, b64Data)
	return args.String(0), args.Error(1)
}

func TestPhotoUpload_ReturnsURL(t *testing.T) {
	up := &mockUploader{}
	up.On("UploadBase64", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("complaints/") && key[:len("complaints/")] == "complaints/"
	}), "aGVsbG8=").Return("https://bucket.example/complaints/x.png", nil)

	rec := postJSON(t, NewPhotoHandler(up).Upload, `{"filename":"leak.png","data":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://bucket.example/complaints/x.png", resp["photo_url"])
	up.AssertExpectations(t)
}

func TestPhotoUpload_MissingData(t *testing.T) {
	rec := postJSON(t, NewPhotoHandler(&mockUploader{}).Upload, `{"filename":"leak.png"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPhotoUpload_StoreUnconfigured(t *testing.T) {
	rec := postJSON(t, NewPhotoHandler(nil).Upload, `{"data":"aGVsbG8="}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
