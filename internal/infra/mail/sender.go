package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

var leadNotificationTmpl = template.Must(template.New("lead").Parse(`
<h2>New lead from Global Tierra</h2>
<ul>
  <li><strong>Name:</strong> {{.Name}}</li>
  <li><strong>Email:</strong> {{.Email}}</li>
  <li><strong>Phone:</strong> {{.Phone}}</li>
  <li><strong>Message:</strong> {{.Message}}</li>
</ul>
`))

var paymentConfirmationTmpl = template.Must(template.New("payment").Parse(`
<h2>Payment received</h2>
<p>Hi {{.Name}},</p>
<p>We received your payment of {{.Amount}} {{.Currency}}. Thanks for
booking with Global Tierra. Your reservation is being confirmed by the
operator.</p>
`))

func NewEmailSender(host string, port int, user, password, fromName, fromAddr, notifyAddr string) *EmailSender {
	return &EmailSender{
		Host:       host,
		Port:       port,
		User:       user,
		Password:   password,
		FromName:   fromName,
		FromAddr:   fromAddr,
		NotifyAddr: notifyAddr,
	}
}

func (s *EmailSender) NotifyAddress() string {
	return s.NotifyAddr
}

// SendLeadNotification alerts the ops inbox about a fresh lead.
func (s *EmailSender) SendLeadNotification(name, email, phone, message string) error {
	data := LeadEmailData{Name: name, Email: email, Phone: phone, Message: message}

	var body bytes.Buffer
	if err := leadNotificationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render lead notification: %w", err)
	}

	subject := fmt.Sprintf("New lead: %s", name)
	return s.send(s.NotifyAddr, subject, body.String())
}

func (s *EmailSender) SendPaymentConfirmation(to, name string, amountCents int64, currency string) error {
	if to == "" {
		to = s.NotifyAddr
	}
	data := PaymentEmailData{
		Name:     name,
		Amount:   fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100),
		Currency: currency,
	}

	var body bytes.Buffer
	if err := paymentConfirmationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render payment confirmation: %w", err)
	}

	return s.send(to, "Payment received - Global Tierra", body.String())
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.FromAddr, s.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
