// Package notify sends the unmatched-areas alert mail. Delivery is
// best-effort; the pipeline never aborts on a notification failure.
package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/vpearl/leadsync/internal/config"
	"github.com/vpearl/leadsync/internal/model"
)

// Mailer reports records whose area matched no salesperson.
type Mailer interface {
	NotifyUnresolved(ctx context.Context, records []model.RawRecord, sourceFile string) error
}

// SMTPMailer sends the alert over SMTPS with the unmatched rows attached
// as a spreadsheet.
type SMTPMailer struct {
	cfg config.NotifyConfig
	now func() time.Time
}

// NewSMTPMailer creates a mailer from the notify configuration.
func NewSMTPMailer(cfg config.NotifyConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

// NotifyUnresolved mails the unmatched records. No-op when the list is
// empty.
func (m *SMTPMailer) NotifyUnresolved(ctx context.Context, records []model.RawRecord, sourceFile string) error {
	if len(records) == 0 {
		return nil
	}
	if m.cfg.From == "" || m.cfg.Password == "" || m.cfg.To == "" {
		return eris.New("notify: mail credentials not configured")
	}

	stamp := m.now().Format("20060102_150405")

	attachment, err := writeAttachment(records)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(attachment); err != nil {
			zap.L().Warn("notify: could not remove temp attachment", zap.Error(err))
		}
	}()

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return eris.Wrap(err, "notify: set sender")
	}
	if err := msg.To(m.cfg.To); err != nil {
		return eris.Wrap(err, "notify: set recipient")
	}
	msg.Subject("Alert: Unmatched Areas Found")
	msg.SetBodyString(mail.TypeTextHTML, renderBody(records, sourceFile, m.now()))
	msg.AttachFile(attachment, mail.WithFileName(fmt.Sprintf("Unmatched_Areas_%s.xlsx", stamp)))

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.From),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return eris.Wrap(err, "notify: create mail client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrap(err, "notify: send alert mail")
	}
	return nil
}

// writeAttachment renders the unmatched rows to a temporary xlsx file and
// returns its path. The caller removes the file.
func writeAttachment(records []model.RawRecord) (string, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Unmatched")
	if err != nil {
		return "", eris.Wrap(err, "notify: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Row", "Area Name", "Applicant Name", "Site Address", "Nature of Development", "Dwelling Unit Info", "Mobile No.", "Email ID"} {
		header.AddCell().SetString(h)
	}
	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetInt(rec.Row)
		for _, v := range []string{rec.AreaName, rec.ApplicantName, rec.SiteAddress, rec.NatureOfDevelopment, rec.DwellingUnitInfo, rec.MobileNo, rec.EmailID} {
			row.AddCell().SetString(v)
		}
	}

	tmp, err := os.CreateTemp("", "unmatched_areas_*.xlsx")
	if err != nil {
		return "", eris.Wrap(err, "notify: create temp file")
	}
	if err := f.Write(tmp); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "notify: write attachment")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "notify: close attachment")
	}
	return tmp.Name(), nil
}

// renderBody builds the HTML alert body.
func renderBody(records []model.RawRecord, sourceFile string, now time.Time) string {
	areas := make(map[string]struct{}, len(records))
	for _, rec := range records {
		areas[rec.AreaName] = struct{}{}
	}

	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Unmatched Areas Alert</h2>
  <p>The attached records from <strong>%s</strong> could not be matched to any salesperson.</p>
  <ul>
    <li>Total unmatched records: %d</li>
    <li>Unique unmatched areas: %d</li>
    <li>Generated on: %s</li>
  </ul>
  <p>Review the attachment, update the area ownership table where needed,
  and reprocess the file.</p>
  <p style="font-size: 12px; color: #666;">This is an automated alert. Please do not reply.</p>
</body>
</html>`, sourceFile, len(records), len(areas), now.Format("2006-01-02 15:04:05"))
}
