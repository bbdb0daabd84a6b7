package models

import (
	"encoding/json"
	"time"
)

// Equipment is a catalog item owned by the CMS. It is never written by the pipeline.
type Equipment struct {
	ID               string       `json:"_id"`
	Name             string       `json:"name"`
	Brand            string       `json:"brand,omitempty"`
	ShortDescription string       `json:"short_description,omitempty"`
	PrimaryImage     *ImageRef    `json:"primaryImage,omitempty"`
	Images           []ImageRef   `json:"images,omitempty"`
	Pricing          *Pricing     `json:"pricing,omitempty"`
	Categories       []string     `json:"categories,omitempty"`
	SafetyFlags      []string     `json:"safety_flags,omitempty"`
	PopularityScore  float64      `json:"popularity_score,omitempty"`
	Availability     Availability `json:"availability"`
	CreatedAt        time.Time    `json:"_createdAt,omitempty"`
}

type Pricing struct {
	Daily   float64 `json:"daily,omitempty"`
	Weekly  float64 `json:"weekly,omitempty"`
	Monthly float64 `json:"monthly,omitempty"`
}

type Availability struct {
	Status string `json:"status"`
}

const AvailabilityAvailable = "available"

// ImageRef is an image on a catalog item. Older documents store a bare URL string.
type ImageRef struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		r.URL = url
		return nil
	}
	type plain ImageRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ImageRef(p)
	return nil
}

// SourceImageURL returns the primary image, else the first image, else "".
func (e Equipment) SourceImageURL() string {
	if e.PrimaryImage != nil && e.PrimaryImage.URL != "" {
		return e.PrimaryImage.URL
	}
	if len(e.Images) > 0 {
		return e.Images[0].URL
	}
	return ""
}

// EquipmentRef is the reference kept on a generated record.
type EquipmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
