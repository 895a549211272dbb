package api

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/newthinker/folio/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into v. Malformed input is a validation error.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}
