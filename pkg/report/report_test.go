package report

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultRow struct {
	DocumentID       string
	LogicalID        string
	Status           string
	ErrorDescription string
	Attempt          int    `csv:"Attempt #"`
	internal         string
	Skipped          string `csv:"-"`
}

func TestHeader(t *testing.T) {
	typ := reflect.TypeOf(resultRow{})

	tests := []struct {
		field string
		want  string
	}{
		{"DocumentID", "Document Id"},
		{"LogicalID", "Logical Id"},
		{"Status", "Status"},
		{"ErrorDescription", "Error Description"},
		{"Attempt", "Attempt #"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, ok := typ.FieldByName(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.want, Header(f))
		})
	}
}

func TestEncodeCSV(t *testing.T) {
	rows := []resultRow{
		{DocumentID: "d1", LogicalID: "h:1", Status: "RequestSuccess", Attempt: 1},
		{DocumentID: "d1", Status: "RequestFailed", ErrorDescription: "bad, view", Attempt: 2, Skipped: "x"},
	}

	data, err := EncodeCSV(rows)
	require.NoError(t, err)
	assert.Equal(t,
		"Document Id,Logical Id,Status,Error Description,Attempt #\n"+
			"d1,h:1,RequestSuccess,,1\n"+
			"d1,,RequestFailed,\"bad, view\",2\n",
		string(data))

	data, err = EncodeCSV([]*resultRow{{Status: "ok"}, nil})
	require.NoError(t, err)
	assert.Equal(t, "Document Id,Logical Id,Status,Error Description,Attempt #\n,,ok,,0\n", string(data))

	_, err = EncodeCSV("nope")
	assert.Error(t, err)
	_, err = EncodeCSV([]string{"nope"})
	assert.Error(t, err)
}

func TestWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "", "create-note", nil)

	t.Run("folders", func(t *testing.T) {
		dir, err := w.Folder(Exports)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("exports", "create-note"), dir)

		exists, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("csv", func(t *testing.T) {
		path, err := w.WriteCSV("modify_results.csv", []resultRow{{Status: "RequestSuccess"}})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("reports", "create-note", "modify_results.csv"), path)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "RequestSuccess")
	})

	t.Run("json", func(t *testing.T) {
		path, err := w.WriteJSON("export.json", map[string]any{"sheets": []string{}})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("output", "create-note", "export.json"), path)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"sheets":[]}`, string(data))
	})

	t.Run("raw json is indented", func(t *testing.T) {
		path, err := w.WriteJSON("raw.json", json.RawMessage(`{"a":{"b":1}}`))
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n", string(data))
	})
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "P-100_A.pdf", Sanitize("P-100_A.pdf"))
	assert.Equal(t, "a_b_c.pdf", Sanitize("a/b:c.pdf"))
	assert.Equal(t, "_", Sanitize(".."))
	assert.Equal(t, "_", Sanitize(""))
}
