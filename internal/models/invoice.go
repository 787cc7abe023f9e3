package models

// InvoiceRecord is the wire contract between the extraction stage and the
// evaluator. All fields are strings exactly as extracted; the evaluator never
// interprets them numerically.
type InvoiceRecord struct {
	Invoice             InvoiceMeta         `json:"invoice"`
	Items               []LineItem          `json:"items"`
	Subtotal            Subtotal            `json:"subtotal"`
	PaymentInstructions PaymentInstructions `json:"payment_instructions"`
}

type InvoiceMeta struct {
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address"`
	SellerName    string `json:"seller_name"`
	SellerAddress string `json:"seller_address"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	DueDate       string `json:"due_date"`
}

type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	TotalPrice  string `json:"total_price"`
}

type Subtotal struct {
	Tax      string `json:"tax"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type PaymentInstructions struct {
	DueDate       string `json:"due_date"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	PaymentMethod string `json:"payment_method"`
}
