package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

// decodeCreate reads a product creation body, answering 400 or 413 itself
// when the body is unusable.
func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (catalog.CreateRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return catalog.CreateRequest{}, false
		}
		writeBadRequest(w, err)
		return catalog.CreateRequest{}, false
	}

	req, err := decodeCreateRequest(jx.DecodeBytes(body))
	if err != nil {
		writeBadRequest(w, err)
		return catalog.CreateRequest{}, false
	}
	return req, true
}

// decodeCreateRequest parses the creation body. Null fields are treated as
// absent and unknown fields are ignored.
func decodeCreateRequest(d *jx.Decoder) (catalog.CreateRequest, error) {
	var req catalog.CreateRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "description":
			req.Description, err = d.Str()
		case "price":
			req.Price, err = product.DecodeDecimal(d)
		case "image":
			req.Image, err = d.Str()
		case "category":
			req.Category, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return catalog.CreateRequest{}, err
	}
	return req, nil
}
