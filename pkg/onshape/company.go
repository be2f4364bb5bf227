package onshape

import (
	"context"
	"errors"
	"fmt"
)

// CompanyInfo is a company the API key's user is a member of.
type CompanyInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Href         string `json:"href,omitempty"`
	Admin        bool   `json:"admin"`
	DomainPrefix string `json:"domainPrefix,omitempty"`
}

// ListResponse is the paged list envelope used by Onshape list endpoints.
type ListResponse[T any] struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Href     string `json:"href,omitempty"`
	Items    []T    `json:"items"`
}

// FindCompanyInfo returns the single company membership of the user. When
// companyID is empty the stack's companyId is used as a filter, if any.
func (c *Client) FindCompanyInfo(ctx context.Context, companyID string) (*CompanyInfo, error) {
	var resp ListResponse[CompanyInfo]
	if err := c.Get(ctx, "/api/companies", &resp); err != nil {
		return nil, err
	}

	if companyID == "" {
		companyID = c.stack.CompanyID
	}

	companies := resp.Items
	if companyID != "" {
		filtered := companies[:0:0]
		for _, company := range companies {
			if company.ID == companyID {
				filtered = append(filtered, company)
			}
		}
		companies = filtered
	}

	switch len(companies) {
	case 0:
		return nil, errors.New("no company membership found")
	case 1:
		return &companies[0], nil
	default:
		return nil, fmt.Errorf(
			"user is member of %d companies, specify a company id", len(companies))
	}
}
