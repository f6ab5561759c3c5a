package cli_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesCmd(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	out, _, err := ws.run(t, "categories")
	require.NoError(t, err)

	interno := strings.Index(out, "piante-da-interno")
	fiorite := strings.Index(out, "piante-fiorite")
	require.NotEqual(t, -1, interno)
	require.NotEqual(t, -1, fiorite)
	assert.Less(t, interno, fiorite, "ordered by ordine")
	assert.NotContains(t, out, "archivio", "inactive categories are hidden")

	_, _, err = ws.run(t, "categories")
	require.NoError(t, err)
	assert.Len(t, api.Requests(), 1)

	jsonOut, _, err := ws.run(t, "categories", "--refresh", "--output", "json")
	require.NoError(t, err)
	assert.Len(t, api.Requests(), 2)

	var cats []struct {
		Slug  string `json:"slug"`
		Order int    `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "piante-da-interno", cats[0].Slug)
}

func TestCategoriesCmd_APIFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.setFail(true)
	ws := newWorkspace(t, api)

	_, _, err := ws.run(t, "categories")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing categories")
}
