// Package json 为命令行工具输出单行 JSON 报告，在支持的平台上使用 sonic 编码。
package json

import (
	"io"

	errs "github.com/favbox/libcom/common/errors"
)

// Report 是命令行工具的单行报告。
type Report struct {
	Op        string `json:"op"`
	Peer      string `json:"peer,omitempty"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
	Elapsed   string `json:"elapsed"`
	Reason    string `json:"reason,omitempty"`
	Error     any    `json:"error,omitempty"`
}

// SetError 记录错误，*errors.Error 按其 JSON 形式展开。
func (r *Report) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	if e, ok := err.(*errs.Error); ok {
		r.Error = e.JSON()
		return
	}
	r.Error = err.Error()
}

// WriteReport 将报告编码为一行 JSON 写入 w。
func WriteReport(w io.Writer, r *Report) error {
	b, err := Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
