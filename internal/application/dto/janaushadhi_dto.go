package dto

import "github.com/shopspring/decimal"

// JanAushadhiProductDTO medicamento genérico del catálogo JanAushadhi.
type JanAushadhiProductDTO struct {
	DrugCode    string          `json:"drug_code"`
	GenericName string          `json:"generic_name"`
	UnitSize    string          `json:"unit_size"`
	MRP         decimal.Decimal `json:"mrp"`
	Group       string          `json:"group"`
}

// JanAushadhiSearchResponse resultado de búsqueda. Source indica "cache" o "remote".
type JanAushadhiSearchResponse struct {
	Items  []JanAushadhiProductDTO `json:"items"`
	Source string                  `json:"source"`
}

// JanAushadhiImportRequest crea un producto local a partir de una entrada del catálogo.
type JanAushadhiImportRequest struct {
	DrugCode     string `json:"drug_code" validate:"required,max=50"`
	SKU          string `json:"sku" validate:"omitempty,max=100"`
	ReorderLevel int64  `json:"reorder_level" validate:"min=0"`
	SupplierID   string `json:"supplier_id" validate:"omitempty,uuid"`
}
