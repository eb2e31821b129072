package json

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/stretchr/testify/assert"
)

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	r := &Report{Op: "write", Requested: 10, Remaining: 4, Elapsed: "50ms", Reason: "timeout"}
	assert.Nil(t, WriteReport(&buf, r))
	assert.Equal(t, `{"op":"write","requested":10,"remaining":4,"elapsed":"50ms","reason":"timeout"}`+"\n", buf.String())

	var decoded map[string]any
	assert.Nil(t, Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded))
	assert.Equal(t, "write", decoded["op"])
}

func TestReportSetError(t *testing.T) {
	r := &Report{}
	r.SetError(errs.New(syscall.ECONNREFUSED, errs.ErrorTypeConnect, "127.0.0.1:1"))
	assert.Equal(t, map[string]any{
		"error": "connection refused",
		"meta":  "127.0.0.1:1",
		"type":  "connect",
	}, r.Error)

	r.SetError(errors.New("plain"))
	assert.Equal(t, "plain", r.Error)

	r.SetError(nil)
	assert.Nil(t, r.Error)
}
