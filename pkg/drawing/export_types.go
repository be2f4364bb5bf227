package drawing

import (
	"encoding/json"
	"fmt"
)

// Annotation types used by drawing JSON exports and modify requests.
const (
	TypeCallout                    = "Onshape::Callout"
	TypeCenterlinePointToPoint     = "Onshape::Centerline::PointToPoint"
	TypeDimensionDiametric         = "Onshape::Dimension::Diametric"
	TypeDimensionLineToLine        = "Onshape::Dimension::LineToLine"
	TypeDimensionLineToLineAngular = "Onshape::Dimension::LineToLineAngular"
	TypeDimensionPointToLine       = "Onshape::Dimension::PointToLine"
	TypeDimensionPointToPoint      = "Onshape::Dimension::PointToPoint"
	TypeDimensionRadial            = "Onshape::Dimension::Radial"
	TypeDimensionThreePointAngular = "Onshape::Dimension::ThreePointAngular"
	TypeGeometricTolerance         = "Onshape::GeometricTolerance"
	TypeInspectionSymbol           = "Onshape::InspectionSymbol"
	TypeNote                       = "Onshape::Note"
	ReferencePoint                 = "Onshape::Reference::Point"
	ReferenceEdge                  = "Onshape::Reference::Edge"
)

// ExportData is a drawing exported in the DRAWING_JSON format.
type ExportData struct {
	Sheets []Sheet `json:"sheets"`
}

// Sheet is one sheet of a drawing.
type Sheet struct {
	Name        string       `json:"name"`
	Active      bool         `json:"active"`
	Views       []View       `json:"views"`
	Annotations []Annotation `json:"annotations"`
}

// View is a drawing view placed on a sheet.
type View struct {
	ViewID            string    `json:"viewId"`
	Name              string    `json:"name,omitempty"`
	Sheet             string    `json:"sheet,omitempty"`
	ViewToPaperMatrix []float64 `json:"viewToPaperMatrix,omitempty"`
}

// anchor names the field of an annotation payload whose viewId tells which
// view the annotation belongs to. leader is true when the anchor is an
// optional leader; annotations without one sit on the sheet.
type anchor struct {
	payload string
	point   string
	leader  bool
}

var anchors = map[string]anchor{
	TypeCallout:                    {"callout", "leaderPosition", true},
	TypeGeometricTolerance:         {"geometricTolerance", "leaderPosition", true},
	TypeNote:                       {"note", "leaderPosition", true},
	TypeDimensionDiametric:         {"diametricDimension", "chordPoint", false},
	TypeDimensionLineToLineAngular: {"lineToLineAngularDimension", "point1", false},
	TypeDimensionLineToLine:        {"lineToLineDimension", "edge1", false},
	TypeDimensionPointToLine:       {"pointToLineDimension", "edge", false},
	TypeDimensionPointToPoint:      {"pointToPointDimension", "point1", false},
	TypeDimensionRadial:            {"radialDimension", "centerPoint", false},
	TypeDimensionThreePointAngular: {"threePointAngularDimension", "point1", false},
}

// Annotation is one annotation of a sheet. Only the type and the fields
// needed to place it are decoded; the type-specific payload is kept raw.
type Annotation struct {
	Type      string
	LogicalID string
	ViewID    string

	payload json.RawMessage
}

// UnmarshalJSON decodes the type and extracts the logical id and view id from
// the type-specific payload.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &a.Type); err != nil {
			return fmt.Errorf("error decoding annotation type: %w", err)
		}
	}

	anc, ok := anchors[a.Type]
	if !ok {
		return nil
	}

	a.payload = fields[anc.payload]
	if len(a.payload) == 0 {
		return nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(a.payload, &payload); err != nil {
		return fmt.Errorf("error decoding %s annotation: %w", a.Type, err)
	}
	if raw, ok := payload["logicalId"]; ok {
		_ = json.Unmarshal(raw, &a.LogicalID)
	}
	if raw, ok := payload[anc.point]; ok {
		var point struct {
			ViewID string `json:"viewId"`
		}
		if err := json.Unmarshal(raw, &point); err == nil {
			a.ViewID = point.ViewID
		}
	}

	return nil
}

// MarshalJSON writes the annotation back in its export form.
func (a Annotation) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": a.Type}
	if anc, ok := anchors[a.Type]; ok && len(a.payload) > 0 {
		out[anc.payload] = a.payload
	}
	return json.Marshal(out)
}

// Note decodes the payload of a note annotation.
func (a Annotation) Note() (*Note, error) {
	if a.Type != TypeNote {
		return nil, fmt.Errorf("annotation is %s, not a note", a.Type)
	}
	var n Note
	if err := json.Unmarshal(a.payload, &n); err != nil {
		return nil, fmt.Errorf("error decoding note: %w", err)
	}
	return &n, nil
}

// onSheet returns true if the annotation has an optional leader and no view.
func (a Annotation) onSheet() bool {
	anc, ok := anchors[a.Type]
	return ok && anc.leader && a.ViewID == ""
}

// ActiveSheet returns the first active sheet, or nil.
func (d *ExportData) ActiveSheet() *Sheet {
	for i := range d.Sheets {
		if d.Sheets[i].Active {
			return &d.Sheets[i]
		}
	}
	return nil
}

// AnnotationsInViews returns every annotation attached to a view, on any
// sheet. Annotations in borders and title blocks are not attached to a view.
func (d *ExportData) AnnotationsInViews() []Annotation {
	var out []Annotation
	for _, sheet := range d.Sheets {
		for _, a := range sheet.Annotations {
			if a.ViewID != "" {
				out = append(out, a)
			}
		}
	}
	return out
}

// AnnotationsOfView returns the annotations attached to view on its sheet.
// Annotations with an optional leader but no view are included when
// includeSheet is true.
func (d *ExportData) AnnotationsOfView(view View, includeSheet bool) []Annotation {
	var out []Annotation
	for _, sheet := range d.Sheets {
		if sheet.Name != view.Sheet {
			continue
		}
		for _, a := range sheet.Annotations {
			if (a.ViewID != "" && a.ViewID == view.ViewID) || (includeSheet && a.onSheet()) {
				out = append(out, a)
			}
		}
		break
	}
	return out
}
