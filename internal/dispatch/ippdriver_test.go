package dispatch

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgate/printgate/internal/ipp"
)

func ippResponse(status uint16) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{1, 1})
	binary.Write(&buf, binary.BigEndian, status)
	binary.Write(&buf, binary.BigEndian, uint32(1))
	buf.WriteByte(ipp.TagEndOfAttrs)
	return buf.Bytes()
}

func TestIPPDriver_Deliver(t *testing.T) {
	var gotBody []byte
	var gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write(ippResponse(0x0000))
	}))
	defer server.Close()

	d := NewIPPDriver(server.Client())
	err := d.Deliver(context.Background(), Delivery{
		Address: strings.TrimPrefix(server.URL, "http://"),
		Payload: &Payload{Data: []byte("%PDF-1"), MediaType: "application/pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/ipp", gotContentType)
	require.GreaterOrEqual(t, len(gotBody), 8)
	assert.Equal(t, uint16(ipp.OpPrintJob), binary.BigEndian.Uint16(gotBody[2:4]))
	assert.True(t, bytes.HasSuffix(gotBody, []byte("%PDF-1")), "document must follow the attributes")
	assert.Contains(t, string(gotBody), "requesting-user-name")
	assert.Contains(t, string(gotBody), "application/pdf")
}

func TestIPPDriver_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(ippResponse(0x0400))
	}))
	defer server.Close()

	d := NewIPPDriver(server.Client())
	err := d.Deliver(context.Background(), Delivery{
		Address: strings.TrimPrefix(server.URL, "http://"),
		Payload: &Payload{Data: []byte("doc")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIPPFailed)
	assert.Contains(t, err.Error(), "0x0400")
}

func TestIPPDriver_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewIPPDriver(server.Client())
	err := d.Deliver(context.Background(), Delivery{
		Address: strings.TrimPrefix(server.URL, "http://"),
		Payload: &Payload{Data: []byte("doc")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIPPFailed)
}

func TestIPPDriver_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	d := NewIPPDriver(nil)
	err := d.Deliver(context.Background(), Delivery{
		Address: addr,
		Payload: &Payload{Data: []byte("doc")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIPPFailed)
}
