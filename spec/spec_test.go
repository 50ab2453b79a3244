package spec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KarenSyu/travel/spec"
)

func TestOpenAPI_DocumentsEveryRoute(t *testing.T) {
	var doc struct {
		OpenAPI string                    `yaml:"openapi"`
		Paths   map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(spec.OpenAPI, &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	routes := map[string][]string{
		"/healthz":                             {"get"},
		"/itinerary":                           {"get"},
		"/itinerary/load":                      {"post"},
		"/itinerary/save":                      {"post"},
		"/itinerary/revert":                    {"post"},
		"/itinerary/move":                      {"post"},
		"/days/{dayNumber}/activities":         {"post"},
		"/days/{dayNumber}/activities/{index}": {"put", "delete"},
		"/chat":                                {"post", "get", "delete"},
		"/export":                              {"get"},
		"/openapi.yaml":                        {"get"},
	}
	assert.Len(t, doc.Paths, len(routes))
	for path, methods := range routes {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
}
