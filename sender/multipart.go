package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
)

var errNoFileValue = errors.New("InputFile must have FileID, URL, Reader or Source set")

// FilePart is a file to be uploaded via multipart.
type FilePart struct {
	FieldName string    // e.g., "photo", "document"
	FileName  string    // e.g., "photo.jpg"
	Reader    io.Reader // File content
}

// MultipartRequest is a request split into files and string parameters.
type MultipartRequest struct {
	Files  []FilePart
	Params map[string]string
}

// HasUploads reports whether the request contains file uploads.
func (r MultipartRequest) HasUploads() bool {
	return len(r.Files) > 0
}

// MultipartEncoder encodes requests as multipart/form-data.
type MultipartEncoder struct {
	w *multipart.Writer
}

// NewMultipartEncoder creates a new multipart encoder.
func NewMultipartEncoder(w io.Writer) *MultipartEncoder {
	return &MultipartEncoder{w: multipart.NewWriter(w)}
}

// ContentType returns the Content-Type header value including boundary.
func (e *MultipartEncoder) ContentType() string {
	return e.w.FormDataContentType()
}

// Close writes the trailing boundary.
func (e *MultipartEncoder) Close() error {
	return e.w.Close()
}

// Encode writes every file part, then every parameter.
func (e *MultipartEncoder) Encode(req MultipartRequest) error {
	for _, file := range req.Files {
		part, err := e.w.CreateFormFile(file.FieldName, file.FileName)
		if err != nil {
			return fmt.Errorf("file %s: %w", file.FieldName, err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("file %s: %w", file.FieldName, err)
		}
		if c, ok := file.Reader.(io.Closer); ok {
			_ = c.Close()
		}
	}

	for name, value := range req.Params {
		if err := e.w.WriteField(name, value); err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
	}
	return nil
}

// BuildMultipartRequest splits a request struct into files and parameters
// using its json tags. Zero fields are skipped.
func BuildMultipartRequest(req any) (MultipartRequest, error) {
	result := MultipartRequest{Params: make(map[string]string)}

	rv := reflect.ValueOf(req)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return result, fmt.Errorf("request must be a struct, got %s", rv.Kind())
	}

	if err := collectFields(&result, rv); err != nil {
		return result, err
	}
	return result, nil
}

func collectFields(result *MultipartRequest, rv reflect.Value) error {
	rt := rv.Type()
	attachIdx := 0

	for i := range rt.NumField() {
		field := rt.Field(i)
		value := rv.Field(i)

		if !field.IsExported() || value.IsZero() {
			continue
		}

		// Embedded structs without a tag are flattened, as encoding/json does.
		if field.Anonymous && field.Tag.Get("json") == "" && value.Kind() == reflect.Struct {
			if err := collectFields(result, value); err != nil {
				return err
			}
			continue
		}

		name := jsonFieldName(field)
		if name == "-" {
			continue
		}

		var err error
		switch v := value.Interface().(type) {
		case InputFile:
			err = addInputFile(result, name, v)
		case []InputFile:
			err = addMediaGroup(result, name, v, &attachIdx)
		default:
			err = addParam(result, name, value)
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func addParam(result *MultipartRequest, name string, value reflect.Value) error {
	if value.Kind() == reflect.Interface {
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.String:
		result.Params[name] = value.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		result.Params[name] = strconv.FormatInt(value.Int(), 10)
	case reflect.Float32, reflect.Float64:
		result.Params[name] = strconv.FormatFloat(value.Float(), 'f', -1, 64)
	case reflect.Bool:
		result.Params[name] = strconv.FormatBool(value.Bool())
	default:
		// Structs, slices and maps are JSON encoded.
		data, err := json.Marshal(value.Interface())
		if err != nil {
			return fmt.Errorf("JSON marshal: %w", err)
		}
		result.Params[name] = string(data)
	}
	return nil
}

func addInputFile(result *MultipartRequest, name string, file InputFile) error {
	switch {
	case file.FileID != "", file.URL != "":
		result.Params[name] = file.Value()
	case file.IsUpload():
		r, err := file.OpenReader()
		if err != nil {
			return err
		}
		result.Files = append(result.Files, FilePart{
			FieldName: name,
			FileName:  file.FileName,
			Reader:    r,
		})
	default:
		return errNoFileValue
	}
	return nil
}

// addMediaGroup encodes items as a JSON array; uploads are referenced
// with attach://.
func addMediaGroup(result *MultipartRequest, name string, files []InputFile, attachIdx *int) error {
	items := make([]map[string]any, 0, len(files))

	for i, file := range files {
		item := map[string]any{"type": file.MediaType}

		switch {
		case file.FileID != "", file.URL != "":
			item["media"] = file.Value()
		case file.IsUpload():
			r, err := file.OpenReader()
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			attachName := "file" + strconv.Itoa(*attachIdx)
			*attachIdx++
			item["media"] = "attach://" + attachName
			result.Files = append(result.Files, FilePart{
				FieldName: attachName,
				FileName:  file.FileName,
				Reader:    r,
			})
		default:
			return fmt.Errorf("item %d: %w", i, errNoFileValue)
		}

		if file.Caption != "" {
			item["caption"] = file.Caption
		}
		items = append(items, item)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("JSON marshal media array: %w", err)
	}
	result.Params[name] = string(data)
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
