package courier

// leopardsBookPacketRequest is the booking payload for the Leopards API
type leopardsBookPacketRequest struct {
	APIKey              string `json:"api_key"`
	APIPassword         string `json:"api_password"`
	BookedPacketWeight  int    `json:"booked_packet_weight"` // grams
	BookedPacketNoPiece int    `json:"booked_packet_no_piece"`
	BookedPacketCODAmt  string `json:"booked_packet_collect_amount"`
	BookedPacketOrderID string `json:"booked_packet_order_id"`
	OriginCity          string `json:"origin_city"`
	DestinationCity     string `json:"destination_city"`
	ShipmentName        string `json:"shipment_name_eng"`
	ShipmentPhone       string `json:"shipment_phone"`
	ShipmentAddress     string `json:"shipment_address"`
	ConsigneeName       string `json:"consignment_name_eng"`
	ConsigneePhone      string `json:"consignment_phone"`
	ConsigneeAddress    string `json:"consignment_address"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	ServiceType         string `json:"product_type,omitempty"`
}

type leopardsBookPacketResponse struct {
	Status       int    `json:"status"`
	Error        string `json:"error,omitempty"`
	TrackNumber  string `json:"track_number"`
	SlipLink     string `json:"slip_link"`
	PacketID     string `json:"packet_id"`
}

type leopardsTrackRequest struct {
	APIKey      string `json:"api_key"`
	APIPassword string `json:"api_password"`
	TrackNumber string `json:"track_numbers"`
}

type leopardsTrackResponse struct {
	Status      int                   `json:"status"`
	Error       string                `json:"error,omitempty"`
	PacketList  []leopardsPacketTrack `json:"packet_list"`
}

type leopardsPacketTrack struct {
	TrackNumber   string                 `json:"track_number"`
	BookedDate    string                 `json:"booked_packet_date"`
	Status        string                 `json:"booked_packet_status"`
	ReceiverName  string                 `json:"receiver_name,omitempty"`
	TrackingDetail []leopardsTrackDetail `json:"tracking_detail"`
}

type leopardsTrackDetail struct {
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	ReceiverName string `json:"reciever_name,omitempty"`
	ActivityDate string `json:"activity_date"`
	ActivityTime string `json:"activity_time"`
	Location     string `json:"destination_branch,omitempty"`
}

type leopardsCancelRequest struct {
	APIKey      string `json:"api_key"`
	APIPassword string `json:"api_password"`
	CNNumbers   string `json:"cn_numbers"`
}

type leopardsCancelResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// leopardsWebhook is the push notification body Leopards posts on status change
type leopardsWebhook struct {
	TrackNumber string `json:"track_number"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Location    string `json:"location,omitempty"`
	ActivityAt  string `json:"activity_datetime"`
}
