/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitListeningServer(t *testing.T) {
	addr := GetLocalAddrWithFreeTCPPort()
	require.Error(t, WaitListeningServer(addr, time.Millisecond*50))

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	require.NoError(t, WaitListeningServer(srv.Listener.Addr().String(), time.Second))
	require.NoError(t, WaitHTTPStatus(srv.URL, http.StatusTeapot, time.Second))
	require.Error(t, WaitHTTPStatus(srv.URL, http.StatusOK, time.Millisecond*50))
}
