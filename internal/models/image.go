package models

// ImageKind tags the outcome of enhancing one equipment photo
type ImageKind string

const (
	ImageEnhanced ImageKind = "enhanced"
	ImageOriginal ImageKind = "original"
	ImageSkipped  ImageKind = "skipped"
)

// ImageEntry is an image attached to a post. Enhanced entries carry Data until
// they are hosted; original entries reference the catalog photo by URL.
type ImageEntry struct {
	Kind                   ImageKind `json:"type"`
	EquipmentID            string    `json:"equipment_id"`
	EquipmentName          string    `json:"equipment_name"`
	Data                   []byte    `json:"-"`
	MIMEType               string    `json:"mime_type,omitempty"`
	URL                    string    `json:"url,omitempty"`
	SourceURL              string    `json:"source_url,omitempty"`
	AssetID                string    `json:"asset_id,omitempty"`
	EnhancementDescription string    `json:"enhancement_description,omitempty"`
	EnhancementPrompt      string    `json:"enhancement_prompt,omitempty"`
	AltText                string    `json:"alt_text"`
	Caption                string    `json:"caption"`
	OptimizedFor           Platform  `json:"optimized_for,omitempty"`
	TargetWidth            int       `json:"target_width,omitempty"`
	TargetHeight           int       `json:"target_height,omitempty"`
}

// HasImage reports whether the entry points at any pixels.
func (e ImageEntry) HasImage() bool {
	return len(e.Data) > 0 || e.URL != ""
}

// ImageResult is the per-equipment outcome. Entry is nil when Kind is ImageSkipped.
type ImageResult struct {
	Kind   ImageKind
	Entry  *ImageEntry
	Reason string
}
