package jobs

import (
	"errors"
)

// TranslationResult points at the data produced by a DONE translation job.
type TranslationResult struct {
	DocumentID      string
	ExternalDataIDs []string
	ElementIDs      []string
}

// ExternalDataPath returns the API path of the first external data item, or
// an empty string when the result was stored in the document.
func (r *TranslationResult) ExternalDataPath() string {
	if len(r.ExternalDataIDs) == 0 {
		return ""
	}
	return "api/documents/d/" + r.DocumentID + "/externaldata/" + r.ExternalDataIDs[0]
}

// ParseTranslationResult extracts the result location of a DONE translation
// job. Exports stored outside the document must name the document and at
// least one external data id.
func ParseTranslationResult(job *Job) (*TranslationResult, error) {
	if len(job.ResultExternalDataIDs) == 0 && len(job.ResultElementIDs) > 0 {
		return &TranslationResult{
			DocumentID: job.DocumentID,
			ElementIDs: job.ResultElementIDs,
		}, nil
	}

	var err error
	switch {
	case job.DocumentID == "":
		err = errors.New("missing documentId")
	case len(job.ResultExternalDataIDs) == 0:
		err = errors.New("missing resultExternalDataIds")
	}
	if err != nil {
		return nil, &PayloadParseError{Kind: KindTranslation, ID: job.ID, Err: err}
	}

	return &TranslationResult{
		DocumentID:      job.DocumentID,
		ExternalDataIDs: job.ResultExternalDataIDs,
	}, nil
}
