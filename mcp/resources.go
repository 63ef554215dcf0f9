package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Resource URIs.
const (
	CatalogURI    = "forms://catalog"
	formURIPrefix = "forms://forms/"
)

// RegisterDefaultResources adds the catalog listing and one resource per form
// definition.
func RegisterDefaultResources(s *Server, svc *Service) {
	s.AddResource(Resource{
		URI:         CatalogURI,
		Name:        "Form catalog",
		Description: "Every printable form with its slug, title, code and orientation.",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			return jsonContent(uri, svc.Catalog.List())
		},
	})

	for _, sum := range svc.Catalog.List() {
		s.AddResource(Resource{
			URI:         formURIPrefix + sum.Slug,
			Name:        sum.Title,
			Description: fmt.Sprintf("Definition of form %s (%s).", sum.Slug, sum.Code),
			MIMEType:    "application/json",
			Handler: func(uri string) ([]ResourceContent, error) {
				spec, err := svc.Catalog.Get(strings.TrimPrefix(uri, formURIPrefix))
				if err != nil {
					return nil, err
				}
				return jsonContent(uri, spec)
			},
		})
	}
}

func jsonContent(uri string, v interface{}) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}
