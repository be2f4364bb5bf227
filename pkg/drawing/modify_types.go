package drawing

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	MessageCreateAnnotations = "onshapeCreateAnnotations"
	MessageEditAnnotations   = "onshapeEditAnnotations"

	// FormatVersion of the annotation messages.
	FormatVersion = "2021-01-01"
)

// ModifyRequest is the body of a drawing modify call.
type ModifyRequest struct {
	Description  string        `json:"description"`
	JSONRequests []JSONRequest `json:"jsonRequests"`
}

// JSONRequest is one message of a modify call.
type JSONRequest struct {
	MessageName   string              `json:"messageName"`
	FormatVersion string              `json:"formatVersion"`
	Annotations   []AnnotationRequest `json:"annotations"`
}

// AnnotationRequest is an annotation to create or edit. Exactly one payload
// matching Type is set.
type AnnotationRequest struct {
	Type    string   `json:"type"`
	Note    *Note    `json:"note,omitempty"`
	Callout *Callout `json:"callout,omitempty"`
}

// Point is a position on the sheet or, with ViewID, in a view.
type Point struct {
	Type       string    `json:"type"`
	Coordinate []float64 `json:"coordinate"`
	ViewID     string    `json:"viewId,omitempty"`
	SnapPoint  string    `json:"snapPointType,omitempty"`
	UniqueID   string    `json:"uniqueId,omitempty"`
}

// Note is the payload of a note annotation.
type Note struct {
	LogicalID      string  `json:"logicalId,omitempty"`
	Position       *Point  `json:"position,omitempty"`
	LeaderPosition *Point  `json:"leaderPosition,omitempty"`
	Contents       string  `json:"contents,omitempty"`
	TextHeight     float64 `json:"textHeight,omitempty"`
}

// Callout is the payload of a callout annotation.
type Callout struct {
	LogicalID      string  `json:"logicalId,omitempty"`
	Position       *Point  `json:"position,omitempty"`
	LeaderPosition *Point  `json:"leaderPosition,omitempty"`
	BorderShape    string  `json:"borderShape,omitempty"`
	BorderSize     int     `json:"borderSize"`
	Contents       string  `json:"contents,omitempty"`
	ContentsTop    string  `json:"contentsTop,omitempty"`
	ContentsBottom string  `json:"contentsBottom,omitempty"`
	ContentsLeft   string  `json:"contentsLeft,omitempty"`
	ContentsRight  string  `json:"contentsRight,omitempty"`
	TextHeight     float64 `json:"textHeight,omitempty"`
}

// CreateAnnotations returns a request creating annotations.
func CreateAnnotations(description string, annotations ...AnnotationRequest) ModifyRequest {
	return ModifyRequest{
		Description: description,
		JSONRequests: []JSONRequest{{
			MessageName:   MessageCreateAnnotations,
			FormatVersion: FormatVersion,
			Annotations:   annotations,
		}},
	}
}

// EditAnnotations returns a request editing existing annotations, which are
// matched by logical id.
func EditAnnotations(description string, annotations ...AnnotationRequest) ModifyRequest {
	return ModifyRequest{
		Description: description,
		JSONRequests: []JSONRequest{{
			MessageName:   MessageEditAnnotations,
			FormatVersion: FormatVersion,
			Annotations:   annotations,
		}},
	}
}

// Count returns the number of annotations in the request; a modify job
// reports one result per annotation.
func (r ModifyRequest) Count() int {
	n := 0
	for _, req := range r.JSONRequests {
		n += len(req.Annotations)
	}
	return n
}

// NewNote returns a note at coordinate on the sheet.
func NewNote(coordinate []float64, contents string, textHeight float64) AnnotationRequest {
	return AnnotationRequest{
		Type: TypeNote,
		Note: &Note{
			Position: &Point{
				Type:       ReferencePoint,
				Coordinate: coordinate,
			},
			Contents:   contents,
			TextHeight: textHeight,
		},
	}
}

// RandomLocation returns a sheet coordinate uniformly distributed between lo
// and hi, with z = 0.
func RandomLocation(lo, hi [2]float64) []float64 {
	return []float64{
		lo[0] + rand.Float64()*(hi[0]-lo[0]),
		lo[1] + rand.Float64()*(hi[1]-lo[1]),
		0,
	}
}

// AppendToNotes builds edit requests that move every note attached to a view
// by dx and append suffix to its text. Notes keep their {\pxql; ...} wrapper
// when present.
func AppendToNotes(data *ExportData, dx float64, suffix string) ([]AnnotationRequest, error) {
	var out []AnnotationRequest
	for _, a := range data.AnnotationsInViews() {
		if a.Type != TypeNote {
			continue
		}
		note, err := a.Note()
		if err != nil {
			return nil, err
		}
		if note.Position == nil || len(note.Position.Coordinate) != 3 {
			return nil, fmt.Errorf("note %s has no position", note.LogicalID)
		}

		contents := note.Contents + suffix
		if trimmed, ok := strings.CutSuffix(note.Contents, "}"); ok {
			contents = trimmed + suffix + "}"
		}

		c := note.Position.Coordinate
		out = append(out, AnnotationRequest{
			Type: TypeNote,
			Note: &Note{
				LogicalID: note.LogicalID,
				Position: &Point{
					Type:       ReferencePoint,
					Coordinate: []float64{c[0] + dx, c[1], c[2]},
				},
				Contents: contents,
			},
		})
	}
	return out, nil
}
