package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "bookstay/pkg/errors"
	"bookstay/pkg/model"
)

// OffersClient resolves offers over HTTP when the reservation service runs
// split from the catalog service.
type OffersClient struct {
	httpClient *HttpClient
}

func NewOffersClient(baseURL string) *OffersClient {
	return &OffersClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *OffersClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/offers", body, nil)
}

func (c *OffersClient) GetAll(limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/offers?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(path, nil)
}

func (c *OffersClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/offers/id/" + url.PathEscape(id)
	return c.httpClient.GET(path, nil)
}

func (c *OffersClient) Delete(id string) (*Response, error) {
	path := "/api/v1/offers/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(path, nil)
}

// FindByID satisfies the reservation engine's offer catalog contract.
func (c *OffersClient) FindByID(_ context.Context, id string) (*model.Offer, error) {
	resp, err := c.GetByID(id)
	if err != nil {
		return nil, apperrors.Unavailable("Offer catalog")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFoundWithID("Offer", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Internal("Offer catalog returned unexpected status", fmt.Errorf("status %d", resp.StatusCode))
	}
	return c.DecodeOffer(resp)
}

func (c *OffersClient) DecodeOffer(resp *Response) (*model.Offer, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode offer wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var offer model.Offer
	if err := json.Unmarshal(wrapper.Data, &offer); err != nil {
		return nil, fmt.Errorf("could not decode offer json:\n%+v\n%s", resp.ToString(), err)
	}

	return &offer, nil
}
