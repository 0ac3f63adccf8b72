// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// OrderNotifier is told about every order that reaches confirmed.
type OrderNotifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

// NotificationService mails order confirmations to the address given in the
// shipping info. Orders without an email are skipped.
type NotificationService struct {
	config *config.Config
	tmpl   *template.Template
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type orderEmail struct {
	ShopName  string
	Name      string
	Reference string
	Lines     []models.CartLine
	Subtotal  string
	Method    models.PaymentMethod
}

const orderConfirmedTemplate = `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you{{if .Name}}, {{.Name}}{{end}}!</h2>
	<p>Your order <strong>{{.Reference}}</strong> is confirmed.</p>
	<table>
	{{range .Lines}}
		<tr>
			<td>{{.ProductName}}{{range .Selection}} / {{.OptionName}}{{end}}</td>
			<td>x{{.Quantity}}</td>
		</tr>
	{{end}}
	</table>
	<p>Subtotal: {{.Subtotal}}</p>
	<p>Payment: {{.Method}}</p>
	<p>Best regards,<br>{{.ShopName}}</p>
</body>
</html>`

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{
		config: config,
		tmpl:   template.Must(template.New("order_confirmed").Parse(orderConfirmedTemplate)),
		send:   smtp.SendMail,
	}
}

func (s *NotificationService) OrderConfirmed(ctx context.Context, order *models.Order) error {
	to, _ := order.ShippingInfo["email"].(string)
	if to == "" {
		return nil
	}

	name, _ := order.ShippingInfo["name"].(string)
	lines, err := orderLines(order)
	if err != nil {
		return err
	}

	body, err := s.render(orderEmail{
		ShopName:  s.config.Email.FromEmail,
		Name:      name,
		Reference: order.PaymentReference,
		Lines:     lines,
		Subtotal:  utils.FormatMoney(order.Subtotal, order.Currency),
		Method:    order.PaymentMethod,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := i18n.T(s.config.I18n.DefaultLocale, i18n.KeyOrderConfirmed, order.PaymentReference)
	return s.sendEmail(to, subject, body)
}

func (s *NotificationService) render(data orderEmail) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not sent, SMTP is not configured")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	if err := s.send(addr, auth, s.config.Email.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// orderLines reads the line items back out of the order's JSONB column.
func orderLines(order *models.Order) ([]models.CartLine, error) {
	raw, err := json.Marshal(order.Lines["items"])
	if err != nil {
		return nil, fmt.Errorf("failed to read order lines: %w", err)
	}
	var lines []models.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to read order lines: %w", err)
	}
	return lines, nil
}
