package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/weave-server/internal/api/http/middleware"
	"github.com/dtroode/weave-server/internal/auth"
	"github.com/dtroode/weave-server/internal/format"
	"github.com/dtroode/weave-server/internal/identity"
	"github.com/dtroode/weave-server/internal/mocks"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/service"
	"github.com/dtroode/weave-server/internal/testutil"
)

const testUserID int64 = 7

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func ptr[T any](v T) *T {
	return &v
}

func newStorageRouter(store *mocks.ItemStore, bind bool, opts ...service.StorageOption) *gin.Engine {
	cm := identity.NewManager()
	h := NewStorage(service.NewStorage(store, testutil.MakeNoopLogger(), opts...), cm, testutil.MakeNoopLogger())

	r := gin.New()
	r.Use(middleware.Timestamp(func() time.Time { return time.Unix(1700000000, 500000000) }))
	g := r.Group("/1.0/:username", func(c *gin.Context) {
		if bind {
			c.Request = c.Request.WithContext(cm.SetUserIDToContext(c.Request.Context(), testUserID))
		}
		c.Next()
	})
	g.DELETE("", h.DeleteStorage)
	g.GET("/info/collections", h.CollectionTimestamps)
	g.GET("/info/collection_counts", h.CollectionCounts)
	g.GET("/info/quota", h.Quota)
	g.GET("/storage/:collection", h.GetCollection)
	g.POST("/storage/:collection", h.PostCollection)
	g.DELETE("/storage/:collection", h.DeleteCollection)
	g.GET("/storage/:collection/:id", h.GetItem)
	g.PUT("/storage/:collection/:id", h.PutItem)
	g.DELETE("/storage/:collection/:id", h.DeleteItem)
	return r
}

func serve(r http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStorage_Unbound(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	w := serve(newStorageRouter(store, false), http.MethodGet, "/1.0/tarek/info/collections", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestStorage_CollectionTimestamps(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	store.On("CollectionTimestamps", mock.Anything, testUserID).
		Return(map[string]float64{"meta": 1700000000.12, "bookmarks": 12.5}, nil).Once()

	w := serve(newStorageRouter(store, true), http.MethodGet, "/1.0/tarek/info/collections", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"meta":1700000000.12,"bookmarks":12.5}`, w.Body.String())
	assert.Equal(t, "1700000000.50", w.Header().Get(middleware.TimestampHeader))
}

func TestStorage_GetCollection(t *testing.T) {
	t.Parallel()

	items := []model.Item{
		{ID: "a", Modified: 1.5, Payload: "x"},
		{ID: "b", Modified: 2.5, Payload: "y"},
	}

	tests := []struct {
		name            string
		target          string
		accept          string
		wantQuery       model.ItemQuery
		wantStatus      int
		wantContentType string
		wantBody        string
	}{
		{
			name:            "ids as json",
			target:          "/1.0/tarek/storage/bookmarks?newer=1&sort=newest",
			wantQuery:       model.ItemQuery{Newer: ptr(1.0), Sort: model.SortNewest},
			wantStatus:      http.StatusOK,
			wantContentType: format.JSON,
			wantBody:        `["a","b"]`,
		},
		{
			name:            "full items as newlines",
			target:          "/1.0/tarek/storage/bookmarks?full=1&limit=2",
			accept:          format.Newlines,
			wantQuery:       model.ItemQuery{Full: true, Limit: ptr(2)},
			wantStatus:      http.StatusOK,
			wantContentType: format.Newlines,
			wantBody:        "{\"id\":\"a\",\"modified\":1.5,\"payload\":\"x\"}\n{\"id\":\"b\",\"modified\":2.5,\"payload\":\"y\"}\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := mocks.NewItemStore(t)
			store.On("GetItems", mock.Anything, testUserID, "bookmarks", tt.wantQuery).Return(items, nil).Once()

			header := http.Header{}
			if tt.accept != "" {
				header.Set("Accept", tt.accept)
			}
			w := serve(newStorageRouter(store, true), http.MethodGet, tt.target, "", header)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantContentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestStorage_GetCollection_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		accept   string
		wantBody string
	}{
		{"unsupported format", "/1.0/tarek/storage/bookmarks", "application/xml", `{"error":"Unsupported format \"application/xml\""}`},
		{"bad limit", "/1.0/tarek/storage/bookmarks?limit=-1", "", `{"error":"invalid value \"-1\" for limit"}`},
		{"bad sort", "/1.0/tarek/storage/bookmarks?sort=random", "", `{"error":"invalid value \"random\" for sort"}`},
		{"bad newer", "/1.0/tarek/storage/bookmarks?newer=soon", "", `{"error":"invalid value \"soon\" for newer"}`},
		{"nan newer", "/1.0/tarek/storage/bookmarks?newer=NaN", "", `{"error":"invalid value \"NaN\" for newer"}`},
		{"infinite older", "/1.0/tarek/storage/bookmarks?older=Inf", "", `{"error":"invalid value \"Inf\" for older"}`},
		{"negative infinite older", "/1.0/tarek/storage/bookmarks?older=-Inf", "", `{"error":"invalid value \"-Inf\" for older"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := mocks.NewItemStore(t)
			header := http.Header{}
			if tt.accept != "" {
				header.Set("Accept", tt.accept)
			}
			w := serve(newStorageRouter(store, true), http.MethodGet, tt.target, "", header)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestStorage_GetItem(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("GetItem", mock.Anything, testUserID, "meta", "global").
			Return(model.Item{ID: "global", Modified: 1700000000.12, Payload: "{}"}, nil).Once()

		w := serve(newStorageRouter(store, true), http.MethodGet, "/1.0/tarek/storage/meta/global", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"global","modified":1700000000.12,"payload":"{}"}`, w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("GetItem", mock.Anything, testUserID, "meta", "global").Return(model.Item{}, model.ErrNotFound).Once()

		w := serve(newStorageRouter(store, true), http.MethodGet, "/1.0/tarek/storage/meta/global", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"record meta/global not found"}`, w.Body.String())
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("GetItem", mock.Anything, testUserID, "meta", "global").Return(model.Item{}, errors.New("connection reset")).Once()

		w := serve(newStorageRouter(store, true), http.MethodGet, "/1.0/tarek/storage/meta/global", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	})
}

func TestStorage_PutItem(t *testing.T) {
	t.Parallel()

	t.Run("stored", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("SetItem", mock.Anything, testUserID, "bookmarks", "b1", mock.MatchedBy(func(f model.ItemFields) bool {
			return f.ID == "b1" && f.Payload != nil && *f.Payload == "data"
		})).Return(1700000000.5, nil).Once()

		w := serve(newStorageRouter(store, true), http.MethodPut, "/1.0/tarek/storage/bookmarks/b1", `{"payload":"data"}`, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1700000000.5", w.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		w := serve(newStorageRouter(store, true), http.MethodPut, "/1.0/tarek/storage/bookmarks/b1", `{"payload":`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"malformed JSON body"}`, w.Body.String())
	})

	t.Run("invalid item", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		w := serve(newStorageRouter(store, true), http.MethodPut, "/1.0/tarek/storage/bookmarks/b1", `{"ttl":-5}`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid item: [invalid ttl]"}`, w.Body.String())
	})
}

func TestStorage_PostCollection(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	store.On("SetItems", mock.Anything, testUserID, "bookmarks", mock.MatchedBy(func(items []model.ItemFields) bool {
		return len(items) == 1 && items[0].ID == "ok"
	})).Return(model.BatchResult{Success: []string{"ok"}, Failed: map[string][]string{}}, nil).Once()

	body := `[{"id":"ok","payload":"p"},{"id":"bad","sortindex":"high"}]`
	w := serve(newStorageRouter(store, true), http.MethodPost, "/1.0/tarek/storage/bookmarks", body, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var res model.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"ok"}, res.Success)
	assert.Equal(t, map[string][]string{"bad": {invalidItemReason}}, res.Failed)
}

func TestStorage_PostCollection_NotArray(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	w := serve(newStorageRouter(store, true), http.MethodPost, "/1.0/tarek/storage/bookmarks", `{"id":"a"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorage_Delete(t *testing.T) {
	t.Parallel()

	t.Run("item", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("DeleteItem", mock.Anything, testUserID, "meta", "global").Return(nil).Once()

		w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek/storage/meta/global", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1700000000.5", w.Body.String())
	})

	t.Run("missing item", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("DeleteItem", mock.Anything, testUserID, "meta", "global").Return(model.ErrNotFound).Once()

		w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek/storage/meta/global", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("collection", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("DeleteItems", mock.Anything, testUserID, "meta", model.ItemQuery{IDs: []string{"global", "keys"}}).Return(nil).Once()

		w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek/storage/meta?ids=global,keys", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1700000000.5", w.Body.String())
	})
}

func TestStorage_DeleteCollection_NonFiniteBound(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek/storage/tabs?newer=NaN", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "DeleteItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStorage_CollectionCounts(t *testing.T) {
	t.Parallel()

	store := mocks.NewItemStore(t)
	store.On("CollectionCounts", mock.Anything, testUserID).Return(map[string]int64{"tabs": 3, "meta": 1}, nil).Once()

	w := serve(newStorageRouter(store, true), http.MethodGet, "/1.0/tarek/info/collection_counts", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tabs":3,"meta":1}`, w.Body.String())
}

func TestStorage_Quota(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []service.StorageOption
		wantBody string
	}{
		{name: "no quota", wantBody: `[3,null]`},
		{name: "with quota", opts: []service.StorageOption{service.WithQuota(10 * 1024)}, wantBody: `[3,10]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := mocks.NewItemStore(t)
			store.On("StorageTotal", mock.Anything, testUserID).Return(int64(3*1024+100), nil).Once()

			w := serve(newStorageRouter(store, true, tt.opts...), http.MethodGet, "/1.0/tarek/info/quota", "", nil)

			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestStorage_DeleteStorage(t *testing.T) {
	t.Parallel()

	t.Run("without confirmation", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek", "", nil)

		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
		assert.JSONEq(t, `{"error":"missing X-Confirm-Delete header"}`, w.Body.String())
	})

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		store.On("DeleteStorage", mock.Anything, testUserID).Return(nil).Once()

		header := http.Header{}
		header.Set(ConfirmDeleteHeader, "1")
		w := serve(newStorageRouter(store, true), http.MethodDelete, "/1.0/tarek", "", header)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1700000000.5", w.Body.String())
	})

	t.Run("unbound", func(t *testing.T) {
		t.Parallel()

		store := mocks.NewItemStore(t)
		header := http.Header{}
		header.Set(ConfirmDeleteHeader, "1")
		w := serve(newStorageRouter(store, false), http.MethodDelete, "/1.0/tarek", "", header)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type memUsers struct {
	created map[string]int64
}

func (m *memUsers) AuthenticateUser(context.Context, string, string) (int64, bool, error) {
	return 0, false, nil
}

func (m *memUsers) CreateUser(_ context.Context, username, _, _ string) (int64, error) {
	if _, ok := m.created[username]; ok {
		return 0, model.ErrUserExists
	}
	m.created[username] = int64(len(m.created) + 1)
	return m.created[username], nil
}

func TestUser_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verifier   auth.Verifier
		username   string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "created",
			verifier:   &memUsers{created: map[string]int64{}},
			username:   "tarek",
			body:       `{"password":"secret","email":"t@example.com"}`,
			wantStatus: http.StatusOK,
			wantBody:   "tarek",
		},
		{
			name:       "taken",
			verifier:   &memUsers{created: map[string]int64{"tarek": 1}},
			username:   "tarek",
			body:       `{"password":"secret"}`,
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"username \"tarek\" is taken"}`,
		},
		{
			name:       "scheme cannot register",
			verifier:   auth.NewDummyVerifier(),
			username:   "tarek",
			body:       `{"password":"secret"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"registration is not supported by the active auth scheme"}`,
		},
		{
			name:       "malformed body",
			verifier:   &memUsers{created: map[string]int64{}},
			username:   "tarek",
			body:       `password=secret`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"malformed JSON body"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewUser(service.NewUsers(tt.verifier, testutil.MakeNoopLogger()), testutil.MakeNoopLogger())
			r := gin.New()
			r.PUT("/user/1.0/:username", h.Register)

			w := serve(r, http.MethodPut, "/user/1.0/"+tt.username, tt.body, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error {
	return p.err
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		backends   []model.Pinger
		wantStatus int
		wantBody   string
	}{
		{"no backends", nil, http.StatusOK, "ready\n"},
		{"all up", []model.Pinger{pinger{}, pinger{}}, http.StatusOK, "ready\n"},
		{"one down", []model.Pinger{pinger{}, pinger{err: errors.New("refused")}}, http.StatusServiceUnavailable, "not ready\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealth(testutil.MakeNoopLogger(), tt.backends...)
			r := gin.New()
			r.GET("/healthz", h.Healthz)
			r.GET("/readyz", h.Readyz)

			w := serve(r, http.MethodGet, "/healthz", "", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok\n", w.Body.String())

			w = serve(r, http.MethodGet, "/readyz", "", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
