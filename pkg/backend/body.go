package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// Body is a request payload that knows its own encoding.
type Body interface {
	Encode() (io.Reader, string, error)
}

// JSONBody encodes a value as application/json.
type JSONBody struct{ V interface{} }

// JSON wraps v as a JSON request body.
func JSON(v interface{}) JSONBody { return JSONBody{V: v} }

// Encode implements Body.
func (b JSONBody) Encode() (io.Reader, string, error) {
	raw, err := json.Marshal(b.V)
	if err != nil {
		return nil, "", fmt.Errorf("marshal json body: %w", err)
	}
	return bytes.NewReader(raw), "application/json", nil
}

type formFile struct {
	field, filename, contentType string
	data                         []byte
}

type formField struct{ name, value string }

// Form is an ordered multipart/form-data payload.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form { return &Form{} }

// Set appends a text field. Empty values are kept: the backend distinguishes "" from absent.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// SetJSON appends a field whose value is the JSON encoding of v.
func (f *Form) SetJSON(name string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal form field %s: %w", name, err)
	}
	f.Set(name, string(raw))
	return nil
}

// File appends a file part.
func (f *Form) File(field, filename, contentType string, data []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, contentType: contentType, data: data})
	return f
}

// Value returns the first value of a text field.
func (f *Form) Value(name string) (string, bool) {
	for _, fl := range f.fields {
		if fl.name == name {
			return fl.value, true
		}
	}
	return "", false
}

// HasFile reports whether a file part is attached under field.
func (f *Form) HasFile(field string) bool {
	for _, fl := range f.files {
		if fl.field == field {
			return true
		}
	}
	return false
}

// Encode implements Body.
func (f *Form) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fl := range f.fields {
		if err := w.WriteField(fl.name, fl.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", fl.name, err)
		}
	}
	for _, fl := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fl.field, fl.filename))
		ct := fl.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", fl.field, err)
		}
		if _, err := part.Write(fl.data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", fl.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
