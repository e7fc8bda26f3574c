package mail

type LeadEmailData struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

type PaymentEmailData struct {
	Name     string
	Amount   string
	Currency string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string

	FromName   string
	FromAddr   string
	NotifyAddr string // ops inbox that receives lead alerts
}
