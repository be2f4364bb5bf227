package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
)

// Header returns the CSV column header of a struct field. A `csv` tag wins;
// otherwise the field name is split into title-cased words, so DocumentID
// becomes "Document Id".
func Header(field reflect.StructField) string {
	if tag := field.Tag.Get("csv"); tag != "" {
		return tag
	}

	words := strings.Fields(strcase.ToDelimited(field.Name, ' '))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// EncodeCSV encodes rows, a slice of structs, as CSV with a header row.
// Fields tagged `csv:"-"` are skipped.
func EncodeCSV(rows any) ([]byte, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("rows must be a slice, got %s", v.Kind())
	}

	elem := v.Type().Elem()
	ptr := elem.Kind() == reflect.Pointer
	if ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("rows must be a slice of structs, got %s", elem.Kind())
	}

	var fields []int
	var header []string
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if !f.IsExported() || f.Tag.Get("csv") == "-" {
			continue
		}
		fields = append(fields, i)
		header = append(header, Header(f))
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		if ptr {
			if row.IsNil() {
				continue
			}
			row = row.Elem()
		}
		record := make([]string, len(fields))
		for j, idx := range fields {
			record[j] = fmt.Sprint(row.Field(idx).Interface())
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes rows into the reports folder and returns the path written.
func (w *Writer) WriteCSV(name string, rows any) (string, error) {
	data, err := EncodeCSV(rows)
	if err != nil {
		return "", fmt.Errorf("error encoding %s: %w", name, err)
	}

	path, err := w.Path(Reports, name)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}

	w.logger.Info("wrote csv", "path", path)
	return path, nil
}
