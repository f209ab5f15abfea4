package netx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReader_ReportsEveryRead(t *testing.T) {
	var ticks []int64
	r := NewProgressReader(iotest.OneByteReader(strings.NewReader("abcd")), 4, func(sent, total int64) {
		assert.Equal(t, int64(4), total)
		ticks = append(ticks, sent)
	})

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))
	assert.Equal(t, []int64{1, 2, 3, 4}, ticks)
	assert.Equal(t, int64(4), r.Sent())
}

func TestProgressReader_AsRequestBody(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	var last int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Len(t, b, len(payload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	body := NewProgressReader(strings.NewReader(payload), int64(len(payload)), func(sent, _ int64) { last = sent })
	req, err := http.NewRequest(http.MethodPost, srv.URL, body)
	require.NoError(t, err)
	req.ContentLength = int64(len(payload))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int64(len(payload)), last)
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.0, Fraction(10, 0))
	assert.Equal(t, 0.25, Fraction(1, 4))
	assert.Equal(t, 1.0, Fraction(5, 4))
}
