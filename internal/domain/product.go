package domain

// Product is the analysis of one scanned product label as returned by the vision model
type Product struct {
	Name         string        `json:"name"`
	Ingredients  []string      `json:"ingredients"`
	HealthScore  float64       `json:"healthScore"` // expected 1-10, not validated
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is a healthier product suggested alongside the scanned one
type Alternative struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	HealthScore float64  `json:"healthScore"`
	Reasons     []string `json:"reasons"`
}

// IsEmpty reports whether p is the default structure returned for an unparseable reply
func (p *Product) IsEmpty() bool {
	return p == nil ||
		(p.Name == "" && len(p.Ingredients) == 0 && p.HealthScore == 0 && len(p.Alternatives) == 0)
}

// Normalize replaces nil slices with empty ones so JSON replies never carry null arrays
func (p *Product) Normalize() {
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}
	if p.Alternatives == nil {
		p.Alternatives = []Alternative{}
	}
	for i := range p.Alternatives {
		alt := &p.Alternatives[i]
		if alt.Ingredients == nil {
			alt.Ingredients = []string{}
		}
		if alt.Reasons == nil {
			alt.Reasons = []string{}
		}
	}
}

// UploadRequest is the body of a media store upload
type UploadRequest struct {
	Image string `json:"image"`
}

// UploadResponse carries the public URL of a stored image
type UploadResponse struct {
	URL string `json:"url"`
}

// AnalyzeRequest is the body of a vision analysis request
type AnalyzeRequest struct {
	ImageURL string `json:"imageUrl"`
}

// ErrorResponse is the uniform failure body of both gateways
type ErrorResponse struct {
	Error string `json:"error"`
}
