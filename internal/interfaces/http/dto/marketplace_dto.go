package dto

// ImportQuery holds the optional parameters of a CSV upload.
// Delimiter is checked by the CSV reader itself: ",", ";", "comma" and
// "semicolon" are accepted, empty means auto-detect.
type ImportQuery struct {
	Delimiter   string `form:"delimiter" binding:"max=10"`
	SourceLabel string `form:"source_label" binding:"max=200"`
}

// StagedOrderListQuery holds the filters of a staged order listing
type StagedOrderListQuery struct {
	PageQuery
	Status  string `form:"status" binding:"omitempty,oneof=READY NEEDS_ATTENTION APPLIED"`
	BatchID string `form:"batch_id" binding:"omitempty,uuid"`
	Q       string `form:"q" binding:"max=200"`
}
