package reconcile

import (
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// object builds a JSON object, keeping keys in insertion order.
type object struct {
	raw []byte
	err error
}

func newObject() *object {
	return &object{raw: []byte("{}")}
}

func (o *object) set(key string, value any) {
	if o.err != nil {
		return
	}

	o.raw, o.err = sjson.SetBytes(o.raw, key, value)
}

// setString only adds non-empty strings.
func (o *object) setString(key string, value string) {
	if value == "" {
		return
	}

	o.set(key, value)
}

func (o *object) setArray(key string, a *array) {
	if o.err != nil {
		return
	}

	raw, err := a.bytes()
	if err != nil {
		o.err = err

		return
	}

	o.raw, o.err = sjson.SetRawBytes(o.raw, key, raw)
}

func (o *object) bytes() ([]byte, error) {
	return o.raw, o.err
}

// array builds a JSON array of objects.
type array struct {
	raw []byte
	n   int
	err error
}

func newArray() *array {
	return &array{raw: []byte(`{"items":[]}`)}
}

func (a *array) add(o *object) {
	if a.err != nil {
		return
	}

	raw, err := o.bytes()
	if err != nil {
		a.err = err

		return
	}

	a.raw, a.err = sjson.SetRawBytes(a.raw, "items.-1", raw)
	a.n++
}

func (a *array) len() int {
	return a.n
}

func (a *array) bytes() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}

	return []byte(gjson.GetBytes(a.raw, "items").Raw), nil
}

// writePretty writes an indented rendering of doc.
func writePretty(w io.Writer, doc []byte) error {
	_, err := w.Write(pretty.Pretty(doc))

	return err
}
