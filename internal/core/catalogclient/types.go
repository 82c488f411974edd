package catalogclient

// ItemMethod is the per-item batch operation. DELETE exists in the wire
// protocol but nothing here ever constructs one: out-of-stock items are
// marked unavailable, never removed.
type ItemMethod string

const (
	MethodCreate ItemMethod = "CREATE"
	MethodUpdate ItemMethod = "UPDATE"
	MethodDelete ItemMethod = "DELETE"
)

// ItemData is the per-item data block. The remote API requires id to
// duplicate the top-level RetailerID.
type ItemData struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title,omitempty"`
	Description         string        `json:"description,omitempty"`
	RichTextDescription string        `json:"rich_text_description,omitempty"`
	Availability        string        `json:"availability,omitempty"`
	Condition           string        `json:"condition,omitempty"`
	Price               string        `json:"price,omitempty"`
	SalePrice           string        `json:"sale_price,omitempty"`
	Link                string        `json:"link,omitempty"`
	ImageLink           string        `json:"image_link,omitempty"`
	Brand               string        `json:"brand,omitempty"`
	ItemGroupID         string        `json:"item_group_id,omitempty"`
	ProductType         string        `json:"product_type,omitempty"`
	AgeGroup            string        `json:"age_group,omitempty"`
	Color               string        `json:"color,omitempty"`
	Gender              string        `json:"gender,omitempty"`
	Size                string        `json:"size,omitempty"`
	Inventory           *int          `json:"inventory,omitempty"`
	Image               []ImageEntry  `json:"image,omitempty"`
}

// ImageEntry is one entry of the data block's image array.
type ImageEntry struct {
	URL string   `json:"url"`
	Tag []string `json:"tag,omitempty"`
}

// BatchRequestItem is one entry of a POST /items_batch request.
type BatchRequestItem struct {
	Method      ItemMethod `json:"method"`
	RetailerID  string     `json:"retailer_id"`
	Data        ItemData   `json:"data"`
}

// BatchEnvelope is the full POST /items_batch request body.
type BatchEnvelope struct {
	ItemType string             `json:"item_type"`
	Requests []BatchRequestItem `json:"requests"`
}

// ItemValidation is one entry of a batch response's validation_status
// array, when the remote side returns one synchronously.
type ItemValidation struct {
	RetailerID string   `json:"retailer_id"`
	Errors     []string `json:"errors,omitempty"`
}

// BatchResponse is the raw response to a batch submission. Interpretation
// (synced/error/optimistic-async) is the replication engine's
// responsibility, not the client's.
type BatchResponse struct {
	Handles          []string         `json:"handles,omitempty"`
	ValidationStatus []ItemValidation `json:"validation_status,omitempty"`
	Error            *APIError        `json:"error,omitempty"`
}

// APIError is the catalog API's top-level error envelope.
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// HandleStatus is the remote side's progress report for one async batch
// handle (GET /<handle>).
type HandleStatus struct {
	Status   string           `json:"status"`
	Errors   []ItemValidation `json:"errors,omitempty"`
	Progress int              `json:"progress,omitempty"`
}

// Metadata is the catalog's own descriptor (GET /<catalog>?fields=…).
type Metadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// RemoteRow is one row returned by Enumerate/LookupByRetailerID — the
// minimal tuple the reconciler needs.
type RemoteRow struct {
	RetailerID   string `json:"retailer_id"`
	Availability string `json:"availability"`
	Inventory    *int   `json:"inventory"`
}

type pagingEnvelope struct {
	Data   []RemoteRow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}
