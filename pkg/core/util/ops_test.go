package util

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newRobot(t *testing.T, status int, response string) (*httptest.Server, *string) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestSendOpsMessage(t *testing.T) {
	srv, body := newRobot(t, http.StatusOK, `{"errcode":0,"errmsg":"ok"}`)

	require.NoError(t, SendOpsMessage(context.Background(), srv.URL, "url：/api 崩溃了"))
	assert.Equal(t, "text", gjson.Get(*body, "msgtype").String())
	assert.Equal(t, "url：/api 崩溃了", gjson.Get(*body, "text.content").String())
}

func TestSendOpsMessage_Errors(t *testing.T) {
	assert.Error(t, SendOpsMessage(context.Background(), "", "x"))

	srv, _ := newRobot(t, http.StatusOK, `{"errcode":93000,"errmsg":"invalid webhook"}`)
	err := SendOpsMessage(context.Background(), srv.URL, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook")

	srv, _ = newRobot(t, http.StatusBadGateway, "bad gateway")
	err = SendOpsMessage(context.Background(), srv.URL, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
