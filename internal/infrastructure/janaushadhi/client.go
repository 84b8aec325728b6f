// Package janaushadhi consume el catálogo externo de medicamentos genéricos JanAushadhi.
package janaushadhi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Apothecary-api/internal/application/dto"
	"github.com/jhoicas/Apothecary-api/internal/application/ports"
	"github.com/jhoicas/Apothecary-api/internal/domain"
)

var _ ports.CatalogService = (*Client)(nil)

// Client cliente HTTP del catálogo.
//
//	GET {base}/products?search=q   -> {"data":[item...]}
//	GET {base}/products/{code}     -> {"data":item} | 404
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient construye el cliente. Con baseURL vacío todas las consultas devuelven ErrUpstream.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// item formato del catálogo remoto.
type item struct {
	DrugCode    string          `json:"drugCode"`
	GenericName string          `json:"genericName"`
	UnitSize    string          `json:"unitSize"`
	MRP         decimal.Decimal `json:"mrp"`
	GroupName   string          `json:"groupName"`
}

func (i item) toDTO() dto.JanAushadhiProductDTO {
	return dto.JanAushadhiProductDTO{
		DrugCode:    strings.TrimSpace(i.DrugCode),
		GenericName: strings.TrimSpace(i.GenericName),
		UnitSize:    strings.TrimSpace(i.UnitSize),
		MRP:         i.MRP.Round(2),
		Group:       strings.TrimSpace(i.GroupName),
	}
}

func (c *Client) Search(ctx context.Context, query string) (*dto.JanAushadhiSearchResponse, error) {
	var body struct {
		Data []item `json:"data"`
	}
	found, err := c.get(ctx, "/products?search="+url.QueryEscape(query), &body)
	if err != nil {
		return nil, err
	}
	out := &dto.JanAushadhiSearchResponse{Items: make([]dto.JanAushadhiProductDTO, 0, len(body.Data)), Source: "remote"}
	if !found {
		return out, nil
	}
	for _, it := range body.Data {
		out.Items = append(out.Items, it.toDTO())
	}
	return out, nil
}

func (c *Client) GetByCode(ctx context.Context, drugCode string) (*dto.JanAushadhiProductDTO, error) {
	var body struct {
		Data *item `json:"data"`
	}
	found, err := c.get(ctx, "/products/"+url.PathEscape(drugCode), &body)
	if err != nil {
		return nil, err
	}
	if !found || body.Data == nil {
		return nil, nil
	}
	d := body.Data.toDTO()
	return &d, nil
}

// get hace la petición y decodifica en out. Devuelve found=false ante un 404.
func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	if c.baseURL == "" {
		return false, fmt.Errorf("%w: JANAUSHADHI_API_URL no configurado", domain.ErrUpstream)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("janaushadhi: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: janaushadhi: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: janaushadhi HTTP %d", domain.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return false, fmt.Errorf("%w: janaushadhi: respuesta ilegible: %v", domain.ErrUpstream, err)
	}
	return true, nil
}
