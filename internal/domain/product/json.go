package product

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// JSON field names. "_id" matches the identifier key storefront clients
// already consume.
const (
	fieldID          = "_id"
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldImage       = "image"
	fieldCategory    = "category"
	fieldIsFeatured  = "isFeatured"
	fieldCreatedAt   = "createdAt"
)

// Encode writes p as a JSON object.
func (p Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart(fieldID)
	e.Str(p.ID)
	e.FieldStart(fieldName)
	e.Str(p.Name)
	e.FieldStart(fieldDescription)
	e.Str(p.Description)
	e.FieldStart(fieldPrice)
	EncodeDecimal(e, p.Price)
	e.FieldStart(fieldImage)
	e.Str(p.Image)
	e.FieldStart(fieldCategory)
	e.Str(p.Category)
	e.FieldStart(fieldIsFeatured)
	e.Bool(p.IsFeatured)
	e.FieldStart(fieldCreatedAt)
	e.Str(p.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

// Decode reads a JSON object produced by Encode. Unknown fields are skipped.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case fieldID:
			p.ID, err = d.Str()
		case fieldName:
			p.Name, err = d.Str()
		case fieldDescription:
			p.Description, err = d.Str()
		case fieldPrice:
			p.Price, err = DecodeDecimal(d)
		case fieldImage:
			p.Image, err = d.Str()
		case fieldCategory:
			p.Category, err = d.Str()
		case fieldIsFeatured:
			p.IsFeatured, err = d.Bool()
		case fieldCreatedAt:
			var s string
			if s, err = d.Str(); err == nil {
				p.CreatedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

// Encode writes s as a JSON object.
func (s Summary) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart(fieldID)
	e.Str(s.ID)
	e.FieldStart(fieldName)
	e.Str(s.Name)
	e.FieldStart(fieldDescription)
	e.Str(s.Description)
	e.FieldStart(fieldImage)
	e.Str(s.Image)
	e.FieldStart(fieldPrice)
	EncodeDecimal(e, s.Price)
	e.ObjEnd()
}

// EncodeList writes products as a JSON array. A nil slice is written as [].
func EncodeList(e *jx.Encoder, products []Product) {
	e.ArrStart()
	for _, p := range products {
		p.Encode(e)
	}
	e.ArrEnd()
}

// DecodeList reads a JSON array of products.
func DecodeList(d *jx.Decoder) ([]Product, error) {
	products := make([]Product, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// EncodeDecimal writes v as a JSON number.
func EncodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// DecodeDecimal reads a JSON number, or a string holding a number, into a
// decimal. Null decodes to zero.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return decimal.Zero, d.Null()
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(strings.Trim(string(n), `"`))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}
