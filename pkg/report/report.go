// Package report writes command results to disk. Every command writes into
// its own folder under each of the output roots:
//
//	./reports/{script}/   CSV reports
//	./exports/{script}/   exported files (PDF)
//	./output/{script}/    JSON dumps
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// FolderType selects an output root.
type FolderType int

const (
	Output FolderType = iota
	Reports
	Exports
)

func (f FolderType) String() string {
	switch f {
	case Output:
		return "output"
	case Reports:
		return "reports"
	case Exports:
		return "exports"
	default:
		return fmt.Sprintf("FolderType(%d)", int(f))
	}
}

// Writer writes report files for one script.
type Writer struct {
	fs     afero.Fs
	root   string
	script string
	logger hclog.Logger
}

// NewWriter returns a Writer rooted at root (the working directory when
// empty) for script.
func NewWriter(fs afero.Fs, root, script string, logger hclog.Logger) *Writer {
	if root == "" {
		root = "."
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Writer{
		fs:     fs,
		root:   root,
		script: script,
		logger: logger.Named("report"),
	}
}

// Folder returns the folder of type t for the script, creating it if needed.
func (w *Writer) Folder(t FolderType) (string, error) {
	dir := filepath.Join(w.root, t.String(), w.script)
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating %s folder: %w", t, err)
	}
	return dir, nil
}

// Path returns the path of file name in folder t. The name is sanitized.
func (w *Writer) Path(t FolderType, name string) (string, error) {
	dir, err := w.Folder(t)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Sanitize(name)), nil
}

// WriteJSON writes v as indented JSON into the output folder and returns the
// path written.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	path, err := w.Path(Output, name)
	if err != nil {
		return "", err
	}

	var data []byte
	if raw, ok := v.(json.RawMessage); ok {
		data, err = indentRaw(raw)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("error encoding %s: %w", name, err)
	}

	if err := afero.WriteFile(w.fs, path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}

	w.logger.Info("wrote json", "path", path)
	return path, nil
}

func indentRaw(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

var unsafeFilenameRE = regexp.MustCompile(`[/\\?%*:|"<>\x00-\x1f]`)

// Sanitize replaces characters that are not allowed in file names.
func Sanitize(name string) string {
	name = unsafeFilenameRE.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "_"
	}
	return name
}
