package dto

// GenerateReportRequest selects the reporting window and filters.
type GenerateReportRequest struct {
	Period string `json:"period" binding:"omitempty,oneof=monthly weekly quarterly yearly"`

	Month     string `json:"month,omitempty"`     // "YYYY-MM" for monthly
	WeekRange string `json:"weekRange,omitempty"` // "YYYY-MM-DD to YYYY-MM-DD" for weekly
	Year      int    `json:"year,omitempty"`      // quarterly, yearly
	Quarter   int    `json:"quarter,omitempty"`   // 1-4 for quarterly

	CategoryID string `json:"categoryId,omitempty"`
	ItemID     string `json:"itemId,omitempty"`
}
