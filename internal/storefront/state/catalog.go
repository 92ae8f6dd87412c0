package state

import "encoding/json"

// FetchErrorMessage is the only text shown when the catalog could not be loaded.
const FetchErrorMessage = "Error fetching products. Please try again later."

type CatalogStatus int

const (
	CatalogLoading CatalogStatus = iota
	CatalogReady
	CatalogError
)

func (s CatalogStatus) String() string {
	switch s {
	case CatalogReady:
		return "ready"
	case CatalogError:
		return "error"
	default:
		return "loading"
	}
}

func (s CatalogStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CatalogStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ready":
		*s = CatalogReady
	case "error":
		*s = CatalogError
	default:
		*s = CatalogLoading
	}
	return nil
}

// Catalog is the session's product snapshot. It leaves loading exactly once and
// holds products only when ready.
type Catalog struct {
	status   CatalogStatus
	products []Product
}

func (c Catalog) Status() CatalogStatus { return c.status }

// Products returns the snapshot, or nil unless the catalog is ready.
func (c Catalog) Products() []Product {
	if c.status != CatalogReady {
		return nil
	}
	return c.products
}

// Error returns the user visible message when loading failed.
func (c Catalog) Error() string {
	if c.status != CatalogError {
		return ""
	}
	return FetchErrorMessage
}

func (c Catalog) loaded(products []Product) Catalog {
	if c.status != CatalogLoading {
		return c
	}
	snapshot := make([]Product, len(products))
	copy(snapshot, products)
	return Catalog{status: CatalogReady, products: snapshot}
}

func (c Catalog) failed() Catalog {
	if c.status != CatalogLoading {
		return c
	}
	return Catalog{status: CatalogError}
}

type catalogJSON struct {
	Status   CatalogStatus `json:"status"`
	Products []Product     `json:"products,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(catalogJSON{Status: c.status, Products: c.Products(), Error: c.Error()})
}

// UnmarshalJSON restores a catalog while keeping products out of non ready states.
func (c *Catalog) UnmarshalJSON(b []byte) error {
	var v catalogJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Catalog{status: v.Status}
	if v.Status == CatalogReady {
		c.products = v.Products
	}
	return nil
}
