package drawing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportDocument = `{
  "sheets": [
    {
      "name": "Sheet1",
      "active": false,
      "views": [{"viewId": "v0", "name": "Front", "sheet": "Sheet1"}],
      "annotations": []
    },
    {
      "name": "Sheet2",
      "active": true,
      "views": [
        {"viewId": "v1", "name": "Top", "sheet": "Sheet2"},
        {"viewId": "v2", "name": "Right", "sheet": "Sheet2"}
      ],
      "annotations": [
        {
          "type": "Onshape::Note",
          "note": {
            "logicalId": "h:1",
            "contents": "{\\pxql; Hello}",
            "position": {"type": "Onshape::Reference::Point", "coordinate": [1, 2, 0]},
            "leaderPosition": {"type": "Onshape::Reference::Point", "coordinate": [0, 0, 0], "viewId": "v1"}
          }
        },
        {
          "type": "Onshape::Note",
          "note": {
            "logicalId": "h:2",
            "contents": "Title block",
            "position": {"type": "Onshape::Reference::Point", "coordinate": [9, 9, 0]}
          }
        },
        {
          "type": "Onshape::Dimension::PointToPoint",
          "pointToPointDimension": {
            "logicalId": "h:3",
            "point1": {"type": "Onshape::Reference::Point", "coordinate": [0, 0, 0], "viewId": "v2"}
          }
        },
        {
          "type": "Onshape::Table",
          "table": {"logicalId": "h:4"}
        }
      ]
    }
  ]
}`

func decodeExport(t *testing.T) *ExportData {
	t.Helper()
	var data ExportData
	require.NoError(t, json.Unmarshal([]byte(exportDocument), &data))
	return &data
}

func TestExportData_Decode(t *testing.T) {
	data := decodeExport(t)
	require.Len(t, data.Sheets, 2)

	annotations := data.Sheets[1].Annotations
	require.Len(t, annotations, 4)

	assert.Equal(t, TypeNote, annotations[0].Type)
	assert.Equal(t, "h:1", annotations[0].LogicalID)
	assert.Equal(t, "v1", annotations[0].ViewID)

	assert.Equal(t, "h:2", annotations[1].LogicalID)
	assert.Empty(t, annotations[1].ViewID)

	assert.Equal(t, "h:3", annotations[2].LogicalID)
	assert.Equal(t, "v2", annotations[2].ViewID)

	assert.Equal(t, "Onshape::Table", annotations[3].Type)
	assert.Empty(t, annotations[3].LogicalID)
}

func TestExportData_Queries(t *testing.T) {
	data := decodeExport(t)

	active := data.ActiveSheet()
	require.NotNil(t, active)
	assert.Equal(t, "Sheet2", active.Name)

	inViews := data.AnnotationsInViews()
	require.Len(t, inViews, 2)
	assert.Equal(t, "h:1", inViews[0].LogicalID)
	assert.Equal(t, "h:3", inViews[1].LogicalID)

	top := active.Views[0]
	assert.Len(t, data.AnnotationsOfView(top, false), 1)
	assert.Len(t, data.AnnotationsOfView(top, true), 2)

	none := data.AnnotationsOfView(View{ViewID: "v0", Sheet: "Sheet1"}, true)
	assert.Empty(t, none)
}

func TestAnnotation_Note(t *testing.T) {
	data := decodeExport(t)
	annotations := data.Sheets[1].Annotations

	note, err := annotations[0].Note()
	require.NoError(t, err)
	assert.Equal(t, `{\pxql; Hello}`, note.Contents)
	assert.Equal(t, []float64{1, 2, 0}, note.Position.Coordinate)

	_, err = annotations[2].Note()
	assert.Error(t, err)
}

func TestAnnotation_RoundTrip(t *testing.T) {
	data := decodeExport(t)

	out, err := json.Marshal(data.Sheets[1].Annotations[2])
	require.NoError(t, err)

	var again Annotation
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, data.Sheets[1].Annotations[2].ViewID, again.ViewID)
	assert.Equal(t, "h:3", again.LogicalID)
}

func TestAppendToNotes(t *testing.T) {
	edits, err := AppendToNotes(decodeExport(t), 1.0, " +")
	require.NoError(t, err)
	require.Len(t, edits, 1)

	note := edits[0].Note
	assert.Equal(t, "h:1", note.LogicalID)
	assert.Equal(t, `{\pxql; Hello +}`, note.Contents)
	assert.Equal(t, []float64{2, 2, 0}, note.Position.Coordinate)

	req := EditAnnotations("Edit notes", edits...)
	assert.Equal(t, 1, req.Count())
	assert.Equal(t, MessageEditAnnotations, req.JSONRequests[0].MessageName)
}

func TestNewNote(t *testing.T) {
	loc := RandomLocation([2]float64{1, 1}, [2]float64{8, 8})
	require.Len(t, loc, 3)
	assert.GreaterOrEqual(t, loc[0], 1.0)
	assert.Less(t, loc[0], 8.0)
	assert.Zero(t, loc[2])

	req := CreateAnnotations("Add note", NewNote(loc, "Hello", 0.12))
	body, err := json.Marshal(req)
	require.NoError(t, err)

	assert.Contains(t, string(body), `"messageName":"onshapeCreateAnnotations"`)
	assert.Contains(t, string(body), `"formatVersion":"2021-01-01"`)
	assert.Contains(t, string(body), `"type":"Onshape::Note"`)
	assert.Contains(t, string(body), `"textHeight":0.12`)
}
