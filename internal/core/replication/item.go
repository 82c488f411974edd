package replication

import (
	"github.com/retailsync/catalog-sync/internal/core/catalogclient"
	"github.com/retailsync/catalog-sync/internal/core/mapper"
)

// toBatchItem converts a mapped ad-catalog item into the wire request the
// catalog client submits, embedding the retailer-id into both the
// top-level field and the data block's own id, as the remote API requires.
func toBatchItem(method catalogclient.ItemMethod, it mapper.Item) catalogclient.BatchRequestItem {
	images := make([]catalogclient.ImageEntry, 0, len(it.Images))
	for _, img := range it.Images {
		images = append(images, catalogclient.ImageEntry{URL: img.URL, Tag: img.Tags})
	}

	return catalogclient.BatchRequestItem{
		Method:     method,
		RetailerID: it.ID,
		Data: catalogclient.ItemData{
			ID:                  it.ID,
			Title:               it.Title,
			Description:         it.Description,
			RichTextDescription: it.RichTextDescription,
			Availability:        it.Availability,
			Condition:           it.Condition,
			Price:               it.Price,
			SalePrice:           it.SalePrice,
			Link:                it.Link,
			ImageLink:           it.ImageLink,
			Brand:               it.Brand,
			ItemGroupID:         it.ItemGroupID,
			ProductType:         it.ProductType,
			AgeGroup:            it.AgeGroup,
			Color:               it.Color,
			Gender:              it.Gender,
			Size:                it.Size,
			Inventory:           it.Inventory,
			Image:               images,
		},
	}
}
