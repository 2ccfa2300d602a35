package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("image/jpeg", 1024))
	assert.NoError(t, ValidateImage("IMAGE/PNG; charset=binary", 1))
	assert.NoError(t, ValidateImage("image/webp", MaxImageSize))
	assert.ErrorIs(t, ValidateImage("image/gif", 10), ErrUnsupportedType)
	assert.ErrorIs(t, ValidateImage("image/jpeg", MaxImageSize+1), ErrTooLarge)
	assert.ErrorIs(t, ValidateImage("image/jpeg", 0), ErrEmpty)
	assert.True(t, IsValidationError(ValidateImage("text/plain", 1)))
}

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("description", "before"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFormImage(t *testing.T) {
	req := multipartRequest(t, "image", "face.png", "image/png", []byte("png"))

	f, err := FormImage(httptest.NewRecorder(), req, "image")
	require.NoError(t, err)
	defer f.Body.Close()
	assert.Equal(t, "face.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.EqualValues(t, 3, f.Size)
	assert.Equal(t, "before", req.FormValue("description"))
}

func TestFormImageErrors(t *testing.T) {
	_, err := FormImage(httptest.NewRecorder(), multipartRequest(t, "", "", "", nil), "image")
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = FormImage(httptest.NewRecorder(), multipartRequest(t, "image", "a.gif", "image/gif", []byte("gif")), "image")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
