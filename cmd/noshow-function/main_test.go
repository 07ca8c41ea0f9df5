package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/noshow/pkg/features"
)

const document = `{
	"$id": "a1",
	"gender": "M",
	"age": 61,
	"hypertension": true,
	"scholarship": false,
	"diabetes": "1",
	"alcoholism": 0,
	"handicap": 2,
	"smsRecieved": true,
	"neighbourhood": "CENTRO",
	"schedule": "2024-03-15T14:30:00.000+00:00",
	"$createdAt": "2024-03-10T09:00:00.000+00:00"
}`

func TestExtract(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, extract(strings.NewReader(document), &out))

	var body struct {
		SchemaVersion string    `json:"schema_version"`
		ParseOutcome  string    `json:"parse_outcome"`
		Features      []float64 `json:"features"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, features.SchemaVersion, body.SchemaVersion)
	assert.Equal(t, "parsed", body.ParseOutcome)
	require.Len(t, body.Features, features.Width())
	assert.Equal(t, []float64{61, 0, 1, 1, 0, 2, 1, 1, 3, 4, 14, 3, 6, 9}, body.Features[:features.HeaderWidth])
}

func TestExtractErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, extract(strings.NewReader("not json"), &out))
	assert.Error(t, extract(strings.NewReader(`{"gender":"F"}`), &out))
}

func TestSchemaCommand(t *testing.T) {
	cmd := schemaCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, float64(features.Width()), body["width"])
}
