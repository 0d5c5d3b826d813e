package types

type CreatePaymentRequest struct {
	Amount  string `json:"amount" binding:"required"`
	Asset   string `json:"asset" binding:"required"`
	Wallet  string `json:"wallet,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type PaymentRequest struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
	SplToken  string `json:"spl_token,omitempty"`
	Label     string `json:"label,omitempty"`
}

type PaymentStatus struct {
	Status string `json:"status"` // "not_found", "pending" or "confirmed"
	TxID   string `json:"tx_id,omitempty"`
	Amount string `json:"amount,omitempty"`
	Asset  string `json:"asset,omitempty"`
	// Retry is set when the last ledger check failed and polling should go on.
	Retry bool `json:"retry,omitempty"`
}

type Payment struct {
	TxID      string `json:"tx_id"`
	Reference string `json:"reference"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Expected  string `json:"expected"`
	Payer     string `json:"payer"`
	Fee       string `json:"fee"`
	Slot      uint64 `json:"slot"`
	Date      string `json:"date"`
	Hour      string `json:"hour"`
	Status    string `json:"status"`
	Label     string `json:"label,omitempty"`
	Network   string `json:"network"`
}

type AssetTotals struct {
	Gross     string `json:"gross"`
	Available string `json:"available"`
	Fees      string `json:"fees"`
}

type History struct {
	Payments []Payment              `json:"payments"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Totals   map[string]AssetTotals `json:"totals"`
}

type CreateClaim struct {
	Asset  string `json:"asset" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

type Claim struct {
	ID        string `json:"id"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type Error struct {
	Error string `json:"error"`
}
