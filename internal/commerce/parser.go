package commerce

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/bilgisen/postcraft/internal/models"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// CleanHTML removes HTML tags and normalizes whitespace
func CleanHTML(input string) string {
	cleaned := htmlTagRegex.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// EquipmentDocument is a catalog item in the shape the CMS stores it.
type EquipmentDocument struct {
	ID               string              `json:"_id"`
	Type             string              `json:"_type"`
	Name             string              `json:"name"`
	ShortDescription string              `json:"short_description,omitempty"`
	Description      string              `json:"description,omitempty"`
	SKU              string              `json:"sku,omitempty"`
	PrimaryImage     *models.ImageRef    `json:"primaryImage,omitempty"`
	Images           []models.ImageRef   `json:"images,omitempty"`
	Pricing          *models.Pricing     `json:"pricing,omitempty"`
	Categories       []string            `json:"categories"`
	Keywords         []string            `json:"image_keywords,omitempty"`
	Availability     models.Availability `json:"availability"`
	Source           string              `json:"source"`
}

// EquipmentID is the CMS id of a synced product.
func EquipmentID(productID int) string {
	return fmt.Sprintf("equipment-woo-%d", productID)
}

func availability(stockStatus string) string {
	switch stockStatus {
	case "", "instock":
		return models.AvailabilityAvailable
	case "onbackorder":
		return "limited"
	default:
		return "unavailable"
	}
}

// ValidateProduct checks the fields every equipment document needs.
func ValidateProduct(p Product) error {
	if p.ID == 0 {
		return fmt.Errorf("missing required field: id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("missing required field: name")
	}
	return nil
}

// ToEquipment maps a product to its CMS document. Unknown category ids are dropped.
func ToEquipment(p Product, categories map[int]string) EquipmentDocument {
	doc := EquipmentDocument{
		ID:               EquipmentID(p.ID),
		Type:             "equipment",
		Name:             CleanHTML(p.Name),
		ShortDescription: CleanHTML(p.ShortDescription),
		Description:      CleanHTML(p.Description),
		SKU:              strings.TrimSpace(p.SKU),
		Availability:     models.Availability{Status: availability(p.StockStatus)},
		Source:           "woocommerce",
	}

	for _, c := range p.Categories {
		if name, ok := categories[c.ID]; ok {
			doc.Categories = append(doc.Categories, name)
		}
	}
	if len(doc.Categories) == 0 {
		doc.Categories = []string{"Uncategorized"}
	}

	for _, img := range p.Images {
		if img.Src == "" {
			continue
		}
		doc.Images = append(doc.Images, models.ImageRef{URL: img.Src, Alt: img.Alt})
	}
	if len(doc.Images) > 0 {
		primary := doc.Images[0]
		doc.PrimaryImage = &primary
	}

	for _, t := range p.Tags {
		doc.Keywords = append(doc.Keywords, t.Name)
	}

	if price, err := strconv.ParseFloat(p.Price, 64); err == nil && price > 0 {
		doc.Pricing = &models.Pricing{Daily: price}
	}
	return doc
}
