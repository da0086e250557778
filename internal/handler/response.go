package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func writeMessageError(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(message)
		e.FieldStart("error")
		e.Str(err.Error())
		e.ObjEnd()
	})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeMessageError(w, http.StatusBadRequest, "Invalid request body", err)
}

// writeError maps catalog errors to responses. Missing products are 404;
// everything else is a 500 carrying the error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}

	lg := zctx.From(r.Context())
	var assetErr *catalog.UpstreamAssetError
	if errors.As(err, &assetErr) {
		lg.Error("Image upload failed", zap.Error(err))
	} else {
		lg.Error("Request failed", zap.Error(err))
	}
	writeMessageError(w, http.StatusInternalServerError, "Server error", err)
}
