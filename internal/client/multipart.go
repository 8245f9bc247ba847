package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// Multipart is a multipart/form-data request body. Its content type carries
// the writer's boundary and is sent unchanged.
type Multipart struct {
	body        io.Reader
	contentType string
}

// ContentType returns the multipart content type including the boundary
func (m *Multipart) ContentType() string {
	return m.contentType
}

// FilePart is a file to attach to a multipart body
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// NewMultipart encodes form fields and an optional file into a request body.
// Fields are written in key order.
func NewMultipart(fields map[string]string, file *FilePart) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("copy %s: %w", file.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return &Multipart{body: &buf, contentType: w.FormDataContentType()}, nil
}
