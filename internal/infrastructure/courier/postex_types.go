package courier

// postexCreateOrderRequest is the booking payload for the PostEx merchant API
type postexCreateOrderRequest struct {
	CityName        string `json:"cityName"`
	PickupCityName  string `json:"pickupCityName"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	DeliveryAddress string `json:"deliveryAddress"`
	InvoiceDivision int    `json:"invoiceDivision"`
	InvoicePayment  string `json:"invoicePayment"` // COD amount, "0" for prepaid
	Items           int    `json:"items"`
	OrderRefNumber  string `json:"orderRefNumber"`
	OrderType       string `json:"orderType"` // Normal | Reversed
	OrderDetail     string `json:"orderDetail,omitempty"`
}

type postexAPIResponse struct {
	StatusCode string `json:"statusCode"`
	StatusMsg  string `json:"statusMessage"`
}

type postexCreateOrderResponse struct {
	postexAPIResponse
	Dist *postexOrderDist `json:"dist,omitempty"`
}

type postexOrderDist struct {
	TrackingNumber string `json:"trackingNumber"`
	OrderStatus    string `json:"orderStatus"`
	OrderDate      string `json:"orderDate"`
}

type postexTrackResponse struct {
	postexAPIResponse
	Dist *postexTrackDist `json:"dist,omitempty"`
}

type postexTrackDist struct {
	TrackingNumber    string                   `json:"trackingNumber"`
	TransactionStatus string                   `json:"transactionStatus"`
	History           []postexTransactionEntry `json:"transactionStatusHistory"`
}

type postexTransactionEntry struct {
	Status     string `json:"transactionStatusMessage"`
	StatusCode string `json:"transactionStatusMessageCode"`
	City       string `json:"modifiedCityName,omitempty"`
	UpdatedAt  string `json:"transactionDateTime"` // "2006-01-02T15:04:05"
	Remarks    string `json:"transactionNotes,omitempty"`
}

type postexCancelResponse struct {
	postexAPIResponse
}

type postexRateResponse struct {
	postexAPIResponse
	Dist *postexRateDist `json:"dist,omitempty"`
}

type postexRateDist struct {
	DeliveryCharges string `json:"deliveryCharges"`
	FuelSurcharge   string `json:"fuelSurcharge,omitempty"`
	EstimatedDays   int    `json:"estimatedDays,omitempty"`
}

// postexWebhook is the order status push body
type postexWebhook struct {
	TrackingNumber string `json:"trackingNumber"`
	OrderStatus    string `json:"orderStatus"`
	StatusCode     string `json:"statusCode,omitempty"`
	City           string `json:"cityName,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
	UpdatedAt      string `json:"updatedAt"`
}
