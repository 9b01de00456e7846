package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/mailer"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/validation"
)

const (
	SubjectEnquiry = "New Vehicle Enquiry"
	SubjectSell    = "New Car Selling Inquiry"
)

var templateFuncs = template.FuncMap{"join": strings.Join}

var enquiryTemplate = template.Must(template.New("enquiry").Funcs(templateFuncs).Parse(`New Vehicle Enquiry:

Personal Information:
- First Name: {{.FirstName}}
- Last Name: {{.LastName}}
- Email: {{.Email}}
- Telephone: {{.Telephone}}

Message: {{.Message}}

Contact Preferences: {{join .ContactPreferences ", "}}
`))

var sellTemplate = template.Must(template.New("sell").Funcs(templateFuncs).Parse(`New Car Selling Inquiry:

Personal Information:
- Title: {{.Title}}
- First Name: {{.FirstName}}
- Last Name: {{.LastName}}
- Email: {{.Email}}
- Telephone: {{.Telephone}}

Car Details:
- Manufacturer: {{.Manufacturer}}
- Model: {{.Model}}
- Year: {{.Year}}
- Registration: {{.Registration}}
- Mileage: {{.Mileage}}
- Comments: {{.Comments}}

Contact Preferences: {{join .ContactPrefs ", "}}
`))

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// NotificationService turns contact forms into mail to a fixed recipient.
// Nothing is stored and failed deliveries are not retried.
type NotificationService struct {
	mailer    Mailer
	recipient string
}

func NewNotificationService(m Mailer, recipient string) *NotificationService {
	return &NotificationService{mailer: m, recipient: recipient}
}

func (s *NotificationService) SendEnquiry(ctx context.Context, form *models.EnquiryForm) error {
	return s.send(ctx, form, SubjectEnquiry, enquiryTemplate)
}

func (s *NotificationService) SendSellInquiry(ctx context.Context, form *models.SellForm) error {
	return s.send(ctx, form, SubjectSell, sellTemplate)
}

func (s *NotificationService) send(ctx context.Context, form any, subject string, tmpl *template.Template) error {
	if err := validation.Struct(form); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, form); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	if err := s.mailer.Send(ctx, mailer.Message{To: s.recipient, Subject: subject, Body: body.String()}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorDelivery, err)
	}
	return nil
}
