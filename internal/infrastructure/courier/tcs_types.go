package courier

// tcsCreateOrderRequest is the booking payload for the TCS COD API
type tcsCreateOrderRequest struct {
	UserName         string `json:"userName"`
	Password         string `json:"password"`
	CostCenterCode   string `json:"costCenterCode"`
	ConsigneeName    string `json:"consigneeName"`
	ConsigneeAddress string `json:"consigneeAddress"`
	ConsigneeMobNo   string `json:"consigneeMobNo"`
	OriginCityName   string `json:"originCityName"`
	DestinationCity  string `json:"destinationCityName"`
	Weight           string `json:"weight"` // kilograms
	Pieces           int    `json:"pieces"`
	CODAmount        string `json:"codAmount"`
	CustomerRefNo    string `json:"customerReferenceNo"`
	ProductDetails   string `json:"productDetails,omitempty"`
	Services         string `json:"services,omitempty"` // O = overnight, S = second day
	FragileItem      string `json:"fragile,omitempty"`
}

type tcsCreateOrderResponse struct {
	ReturnStatus tcsReturnStatus      `json:"returnStatus"`
	BookingReply *tcsBookingReplyBody `json:"bookingReply,omitempty"`
}

type tcsReturnStatus struct {
	Code    string `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type tcsBookingReplyBody struct {
	ConsignmentNo string `json:"consignmentNo"`
	RunID         string `json:"runId,omitempty"`
}

type tcsTrackResponse struct {
	ReturnStatus tcsReturnStatus    `json:"returnStatus"`
	Shipment     *tcsShipmentInfo   `json:"shipmentInfo,omitempty"`
	Checkpoints  []tcsCheckpoint    `json:"trackDetailReply"`
	DeliveryInfo *tcsDeliveryDetail `json:"deliveryInfo,omitempty"`
}

type tcsShipmentInfo struct {
	ConsignmentNo string `json:"consignmentNo"`
	Status        string `json:"currentStatus"`
}

type tcsCheckpoint struct {
	Status    string `json:"status"`
	Remarks   string `json:"recievedBy,omitempty"`
	Location  string `json:"location,omitempty"`
	DateTime  string `json:"dateTime"` // "02-Jan-2006 15:04"
}

type tcsDeliveryDetail struct {
	DeliveredAt string `json:"deliveryDateTime,omitempty"`
	ReceivedBy  string `json:"recievedBy,omitempty"`
}

type tcsCancelRequest struct {
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	ConsignmentNo string `json:"consignmentNumber"`
}

type tcsCancelResponse struct {
	ReturnStatus tcsReturnStatus `json:"returnStatus"`
}

type tcsPickupRequest struct {
	UserName       string `json:"userName"`
	Password       string `json:"password"`
	CostCenterCode string `json:"costCenterCode"`
	PickupAddress  string `json:"pickupAddress"`
	PickupCity     string `json:"pickupCity"`
	PickupDate     string `json:"pickupDate"` // "02-Jan-2006"
	PickupTime     string `json:"pickupTime,omitempty"`
	Pieces         int    `json:"pieces"`
	Weight         string `json:"weight"`
}

type tcsPickupResponse struct {
	ReturnStatus tcsReturnStatus `json:"returnStatus"`
	PickupID     string          `json:"pickupId,omitempty"`
}

// tcsWebhook is the status push body TCS posts to subscribed endpoints
type tcsWebhook struct {
	ConsignmentNo string `json:"consignmentNo"`
	Status        string `json:"status"`
	Location      string `json:"location,omitempty"`
	ReceivedBy    string `json:"recievedBy,omitempty"`
	DateTime      string `json:"dateTime"`
}
