package report

import (
	"fmt"
	"strings"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/internal/pkg/mail"
)

// Mailer delivers a rendered report. Satisfied by the SMTP mailer; tests
// plug in a recorder.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer adapts the mail package to the Mailer interface.
type SMTPMailer struct{}

func (SMTPMailer) Send(to, subject, body string) error {
	return mail.Send(mail.Message{To: to, Subject: subject, HTMLBody: body})
}

// Sender renders and emails billing cycle reports. Delivery is strictly
// best-effort: a failed send never affects the settled cycle.
type Sender struct {
	mailer Mailer
}

// NewSender creates a report sender using the given mailer.
func NewSender(mailer Mailer) *Sender {
	return &Sender{mailer: mailer}
}

// SendCycleReport emails the settled cycle to the user.
func (s *Sender) SendCycleReport(user *models.User, cycle *models.BillingCycle) error {
	subject := fmt.Sprintf("Your consolidated bill for %s", cycle.Period)
	return s.mailer.Send(user.Email, subject, RenderCycleHTML(user, cycle))
}

// RenderCycleHTML produces the HTML body of a billing report.
func RenderCycleHTML(user *models.User, cycle *models.BillingCycle) string {
	var b strings.Builder

	b.WriteString("<h2>Streambill &mdash; billing period " + cycle.Period + "</h2>")
	b.WriteString("<p>Hi " + user.Name + ", here is your consolidated streaming bill.</p>")
	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	b.WriteString("<tr><th>Provider</th><th>Plan</th><th>Period</th><th>Amount (PLN)</th></tr>")
	for _, item := range cycle.Items {
		amount := item.PricePLN.Add(item.PendingChargePLN)
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s &ndash; %s</td><td>%s</td></tr>",
			item.ProviderCode,
			item.PlanName,
			item.PeriodFrom.Format("2006-01-02"),
			item.PeriodTo.Format("2006-01-02"),
			amount.StringFixed(2),
		)
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Wallet credit applied: %s PLN</p>", cycle.CreditUsed.StringFixed(2))
	fmt.Fprintf(&b, "<p><strong>Total charged: %s PLN</strong></p>", cycle.TotalPLN.StringFixed(2))

	return b.String()
}
