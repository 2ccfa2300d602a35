package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/middleware"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/upload"
)

const (
	adminID   = "admin-1"
	patientID = "patient-1"
)

type fakeStore struct {
	mu        sync.Mutex
	visits    map[string]*Visit
	photos    map[string]*Photo
	seq       int
	insertErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{visits: make(map[string]*Visit), photos: make(map[string]*Photo)}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) CreateVisit(_ context.Context, v *Visit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.nextID("visit")
	cp := *v
	f.visits[v.ID] = &cp
	return nil
}

func (f *fakeStore) GetVisit(_ context.Context, id string) (*Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return nil, ErrVisitNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) ListVisits(_ context.Context, userID string) ([]Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Visit
	for _, v := range f.visits {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertPhoto(_ context.Context, p *Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	p.ID = f.nextID("photo")
	cp := *p
	f.photos[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetPhoto(_ context.Context, id string) (*Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, ErrPhotoNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListPhotosByUser(_ context.Context, userID string) ([]Photo, error) {
	return f.filter(func(p *Photo) bool { return p.UserID == userID }), nil
}

func (f *fakeStore) ListPhotosByVisit(_ context.Context, visitID string) ([]Photo, error) {
	return f.filter(func(p *Photo) bool { return p.VisitID == visitID }), nil
}

func (f *fakeStore) filter(keep func(*Photo) bool) []Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Photo
	for _, p := range f.photos {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

func (f *fakeStore) DeletePhoto(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.photos[id]; !ok {
		return ErrPhotoNotFound
	}
	delete(f.photos, id)
	return nil
}

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

type fixture struct {
	svc    *Service
	store  *fakeStore
	bucket *storage.MemoryBucket
	ctx    context.Context
	visit  *Visit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	bucket := storage.NewMemoryBucket()
	gw := storage.NewGateway(storage.NativeBackend{}, logger.Discard())
	svc := NewService(store, gw, staticAdmins{adminID: true}, logger.Discard())
	ctx := storage.WithBucket(context.Background(), bucket)

	visit, err := svc.CreateVisit(ctx, adminID, VisitInput{UserID: patientID, Title: "Initial consult"})
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, bucket: bucket, ctx: ctx, visit: visit}
}

func (f *fixture) jpegUpload(size int) UploadInput {
	return UploadInput{
		VisitID:      f.visit.ID,
		PhotoType:    TypeInitialConsult,
		DoctorNote:   " left profile ",
		OriginalName: "face.jpg",
		ContentType:  "image/jpeg",
		Size:         int64(size),
		Body:         bytes.NewReader(make([]byte, size)),
	}
}

func TestUploadStoresObjectThenRow(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Upload(f.ctx, adminID, f.jpegUpload(1024))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(view.R2Key, "visits/"+f.visit.ID+"/initial_consult/"))
	assert.True(t, strings.HasSuffix(view.R2Key, ".jpg"))
	assert.Equal(t, patientID, view.UserID)
	assert.Equal(t, "left profile", *view.DoctorNote)
	assert.EqualValues(t, 1024, *view.FileSize)
	assert.Equal(t, storage.ProxyPath(view.R2Key), view.Access.URL)

	obj, err := f.bucket.Get(f.ctx, view.R2Key)
	require.NoError(t, err)
	obj.Body.Close()
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.EqualValues(t, 1024, obj.Size)
}

func TestUploadCompensatesOnMetadataFailure(t *testing.T) {
	f := newFixture(t)
	f.store.insertErr = errors.New("db down")

	_, err := f.svc.Upload(f.ctx, adminID, f.jpegUpload(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, f.bucket.Len())
}

func TestUploadRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(f.ctx, patientID, f.jpegUpload(10))
	assert.ErrorIs(t, err, ErrForbidden)

	in := f.jpegUpload(10)
	in.PhotoType = "selfie"
	_, err = f.svc.Upload(f.ctx, adminID, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = f.jpegUpload(10)
	in.ContentType = "image/gif"
	_, err = f.svc.Upload(f.ctx, adminID, in)
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	in = f.jpegUpload(10)
	in.VisitID = "missing"
	_, err = f.svc.Upload(f.ctx, adminID, in)
	assert.ErrorIs(t, err, ErrVisitNotFound)

	assert.Zero(t, f.bucket.Len())
}

func TestUploadWithoutStorage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), adminID, f.jpegUpload(10))
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
	assert.Empty(t, f.store.photos)
}

func TestListAndTimelineAccess(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(f.ctx, adminID, f.jpegUpload(10))
	require.NoError(t, err)

	views, err := f.svc.ListPhotos(f.ctx, patientID, f.visit.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, storage.ModeNative, views[0].Access.Mode)

	_, err = f.svc.ListPhotos(f.ctx, "someone-else", f.visit.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	timeline, err := f.svc.Timeline(f.ctx, adminID, patientID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Len(t, timeline[0].Photos, 1)
}

func TestDeleteRemovesObjectAndRow(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Upload(f.ctx, adminID, f.jpegUpload(10))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, patientID, view.ID), ErrForbidden)

	require.NoError(t, f.svc.Delete(f.ctx, adminID, view.ID))
	assert.Zero(t, f.bucket.Len())
	_, err = f.store.GetPhoto(f.ctx, view.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, adminID, view.ID), ErrPhotoNotFound)
}

func TestDeleteKeepsRowWhenStorageFails(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Upload(f.ctx, adminID, f.jpegUpload(10))
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), adminID, view.ID)
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
	_, err = f.store.GetPhoto(f.ctx, view.ID)
	assert.NoError(t, err)
}

func TestUploadPhotoHandler(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, logger.Discard())
	r := chi.NewRouter()
	r.Use(storage.BindBucket(f.bucket))
	h.Routes(r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="after.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("photo_type", TypeAfter))
	require.NoError(t, mw.Close())

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/visits/"+f.visit.ID+"/photos", bytes.NewReader(buf.Bytes()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, send(patientID).Code)

	rec := send(adminID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"photoType":"after"`)
	assert.Contains(t, rec.Body.String(), `/api/r2-proxy/visits%2F`)
	assert.Equal(t, 1, f.bucket.Len())
}
