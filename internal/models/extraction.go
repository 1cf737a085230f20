package models

// UsageFigures mirrors the usage card payload from the billing page.
// Field names follow the upstream JSON; missing fields decode as zero.
type UsageFigures struct {
	NetBilledAmount                       float64 `json:"net_billed_amount"`
	NetQuantity                           uint64  `json:"net_quantity"`
	DiscountQuantity                      uint64  `json:"discount_quantity"`
	UserPremiumRequestEntitlement         uint64  `json:"user_premium_request_entitlement"`
	FilteredUserPremiumRequestEntitlement uint64  `json:"filtered_user_premium_request_entitlement"`
}

// RawHistoryRow is one row of the usage table as reported by the page
// script, before date parsing and currency stripping. Amount cells arrive
// as strings because the page sometimes renders them with a currency
// symbol; the extraction mapper normalizes them.
type RawHistoryRow struct {
	Date             string `json:"date"`
	IncludedRequests uint32 `json:"included_requests"`
	BilledRequests   uint32 `json:"billed_requests"`
	GrossAmount      string `json:"gross_amount"`
	BilledAmount     string `json:"billed_amount"`
}

// ExtractionResult is the outcome of one extraction attempt. It is
// consumed immediately to update the store and then dropped.
type ExtractionResult struct {
	CustomerID  *uint64         `json:"customerId,omitempty"`
	Usage       *UsageFigures   `json:"usage,omitempty"`
	HistoryRows []RawHistoryRow `json:"historyRows,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// Failed reports whether the attempt produced an error.
func (r *ExtractionResult) Failed() bool {
	return r.Err != ""
}
