package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
)

const (
	FormatDrawingJSON = "DRAWING_JSON"
	FormatPDF         = "PDF"
)

// TranslationRequest is the body of a drawing translation call.
type TranslationRequest struct {
	FormatName               string `json:"formatName"`
	StoreInDocument          bool   `json:"storeInDocument"`
	Level                    string `json:"level,omitempty"`
	ShowOverriddenDimensions bool   `json:"showOverriddenDimensions,omitempty"`
	DestinationName          string `json:"destinationName,omitempty"`
}

// JSONExport is a drawing exported as DRAWING_JSON.
type JSONExport struct {
	TranslationID string
	Data          *ExportData

	// Raw is the export document as downloaded.
	Raw json.RawMessage
}

func translationsPath(t Target) string {
	return t.elementPath("api/drawings") + "/translations"
}

// ExportJSON exports the drawing as DRAWING_JSON, waits for the translation
// and downloads the result.
func (s *Service) ExportJSON(ctx context.Context, t Target) (*JSONExport, error) {
	s.logger.Info("initiated export of drawing as json", "target", t.String())

	id, err := s.startJob(ctx, translationsPath(t), TranslationRequest{
		FormatName:      FormatDrawingJSON,
		StoreInDocument: false,
		Level:           "full",
	})
	if err != nil {
		return nil, fmt.Errorf("error starting json export: %w", err)
	}

	result, err := s.poller.AwaitTranslation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("translation finished", "id", id, "external_data", result.ExternalDataIDs)

	path, err := externalDataPath(id, result)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := s.api.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("error downloading json export: %w", err)
	}

	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("error decoding json export: %w", err)
	}

	return &JSONExport{
		TranslationID: id,
		Data:          &data,
		Raw:           raw,
	}, nil
}

// ExportPDF exports the drawing as PDF, waits for the translation and
// downloads the file to destination.
func (s *Service) ExportPDF(ctx context.Context, t Target, destination string) error {
	s.logger.Info("initiated export of drawing as pdf", "target", t.String())

	id, err := s.startJob(ctx, translationsPath(t), TranslationRequest{
		FormatName:               FormatPDF,
		StoreInDocument:          false,
		ShowOverriddenDimensions: true,
		DestinationName:          filepath.Base(destination),
	})
	if err != nil {
		return fmt.Errorf("error starting pdf export: %w", err)
	}

	result, err := s.poller.AwaitTranslation(ctx, id)
	if err != nil {
		return err
	}

	path, err := externalDataPath(id, result)
	if err != nil {
		return err
	}

	if err := s.api.DownloadFile(ctx, path, destination); err != nil {
		return fmt.Errorf("error downloading pdf export: %w", err)
	}

	s.logger.Info("downloaded pdf export", "destination", destination)
	return nil
}

// externalDataPath returns the download path of an export. Exports are never
// stored in the document, so a result without external data is malformed.
func externalDataPath(id string, result *jobs.TranslationResult) (string, error) {
	path := result.ExternalDataPath()
	if path == "" {
		return "", &jobs.PayloadParseError{
			Kind: jobs.KindTranslation,
			ID:   id,
			Err:  errors.New("translation finished without external data"),
		}
	}
	return path, nil
}
