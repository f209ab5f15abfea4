package models

type RegCount struct {
	RegNo string `json:"_id"`
	Count int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardStats is the summary served for the operator's local day and week.
type DashboardStats struct {
	Total          int             `json:"total"`
	Today          int             `json:"today"`
	ThisWeek       int             `json:"thisWeek"`
	TopReg         []RegCount      `json:"topReg"`
	Recent         []VehicleRecord `json:"recent"`
	DailyCountsIn  []DailyCount    `json:"dailyCountsIn"`
	DailyCountsOut []DailyCount    `json:"dailyCountsOut"`
}
