package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/weave-server/internal/mocks"
)

func TestHTTPServer_Address(t *testing.T) {
	t.Parallel()

	s := NewHTTPServer(http.NotFoundHandler(), ":8080", time.Second, time.Second)
	assert.Equal(t, ":8080", s.Address())
}

func TestHTTPServer_StartServeStop(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := NewHTTPServer(handler, ":0", time.Second, time.Second)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sec := mocks.NewSecurityLayer(t)
	sec.On("Listen", "tcp", ":0").Return(ln, nil).Once()

	served := make(chan error, 1)
	go func() { served <- srv.Start(sec) }()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/", ln.Addr()))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err = io.ReadAll(resp.Body)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "pong", string(body))

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, <-served)
}

func TestHTTPServer_StartListenError(t *testing.T) {
	t.Parallel()

	srv := NewHTTPServer(http.NotFoundHandler(), ":0", time.Second, time.Second)
	sec := mocks.NewSecurityLayer(t)
	sec.On("Listen", "tcp", mock.Anything).Return(nil, errors.New("address in use")).Once()

	assert.ErrorContains(t, srv.Start(sec), "failed to listen")
}
