package models

// ProductType classifies what a sold SKU is, which decides how much recipe
// detail (and therefore stock control) it needs. Values match the ones the
// mapping-bootstrap tooling seeded.
type ProductType string

const (
	// ProductTypeDish needs a full recipe with ingredients.
	ProductTypeDish ProductType = "dish"
	// ProductTypeBeverageBar is a mixed drink with a simplified recipe.
	ProductTypeBeverageBar ProductType = "beverage_bar"
	// ProductTypeBeverageIndustrial is a packaged beverage; no recipe needed.
	ProductTypeBeverageIndustrial ProductType = "beverage_industrial"
	// ProductTypeService is a cover charge or service fee; never stocked.
	ProductTypeService ProductType = "service"
)

func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeDish, ProductTypeBeverageBar, ProductTypeBeverageIndustrial, ProductTypeService:
		return true
	}
	return false
}

// UploadStatus is the state machine over one sales upload:
// pending -> processing -> completed | failed. Terminal states are final;
// UpdateSalesUploadStatus enforces that transitions never go backwards.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

func (s UploadStatus) IsValid() bool {
	switch s {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed:
		return true
	}
	return false
}

func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the state
// machine monotonic.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case UploadStatusPending:
		return next == UploadStatusProcessing || next.IsTerminal()
	case UploadStatusProcessing:
		return next.IsTerminal()
	default:
		// completed / failed never leave their state
		return false
	}
}
