// Package notify mails market reports through SendGrid.
package notify

import (
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/logger"
	"github.com/ademuri/market-insight-tools/internal/pipeline"
)

const senderName = "market-insight-tools"

var ErrMissingAPIKey = errors.New("email.sendgrid_api_key must be set in order to send emails")

type Mailer struct {
	from   string
	dryRun bool
	out    io.Writer
	send   func(*mail.SGMailV3) error
}

type Option func(*Mailer)

// WithOutput sets where dry runs print the composed message.
func WithOutput(w io.Writer) Option {
	return func(m *Mailer) {
		m.out = w
	}
}

// WithSendFunc replaces the SendGrid client.
func WithSendFunc(send func(*mail.SGMailV3) error) Option {
	return func(m *Mailer) {
		m.send = send
	}
}

// New creates a Mailer. A dry-run Mailer prints instead of sending and needs
// no API key.
func New(cfg config.EmailConfig, dryRun bool, opts ...Option) (*Mailer, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("email.from must be set")
	}
	m := &Mailer{from: cfg.From, dryRun: dryRun, out: os.Stdout}
	if cfg.SendGridAPIKey != "" {
		client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
		m.send = func(msg *mail.SGMailV3) error {
			resp, err := client.Send(msg)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 300 {
				return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
			}
			return nil
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	if !dryRun && m.send == nil {
		return nil, ErrMissingAPIKey
	}
	return m, nil
}

// SendReports mails one message summarising reports to the given address.
func (m *Mailer) SendReports(to string, reports []*pipeline.MarketReport, now time.Time) error {
	subject, body := Compose(reports, now)

	if m.dryRun {
		fmt.Fprintf(m.out, "Would have sent email to %s:\nsubject: %s\n%s\n", to, subject, body)
		return nil
	}

	message := mail.NewSingleEmail(mail.NewEmail(senderName, m.from), subject, mail.NewEmail(to, to), plainText(reports), body)
	if err := m.send(message); err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	logger.Info("Sent report for %d markets to %s", len(reports), to)
	return nil
}

// Compose renders the subject and HTML body for reports.
func Compose(reports []*pipeline.MarketReport, now time.Time) (subject string, body string) {
	codes := make([]string, 0, len(reports))
	for _, r := range reports {
		codes = append(codes, r.MarketCode)
	}
	subject = fmt.Sprintf("Market insights %s: %s", now.Format("2006-01-02"), strings.Join(codes, ", "))

	var b strings.Builder
	b.WriteString(`<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`)
	for _, r := range reports {
		fmt.Fprintf(&b, "<div>\n<h2>%s (%s)</h2>\n", html.EscapeString(r.Market), html.EscapeString(r.MarketCode))
		if r.MarketInsights == nil {
			b.WriteString("<div>No playlists found.</div>\n</div>\n")
			continue
		}

		s := r.MarketInsights.Summary
		writeTable(&b, []string{"Metric", "Value"}, [][]string{
			{"Playlists", fmt.Sprint(r.Playlists)},
			{"Opportunity score", fmt.Sprintf("%.2f", s.OpportunityScore)},
			{"Total tracks", fmt.Sprint(s.TotalTracks)},
			{"Unique genres", fmt.Sprint(s.UniqueGenres)},
			{"Key gaps", strings.Join(s.KeyGaps, ", ")},
		})

		if len(r.GenreAnalysis.TopGenres) > 0 {
			rows := make([][]string, 0, len(r.GenreAnalysis.TopGenres))
			for _, g := range r.GenreAnalysis.TopGenres {
				rows = append(rows, []string{g.Genre, fmt.Sprintf("%.2f%%", g.Percentage)})
			}
			b.WriteString("<h3>Top genres</h3>\n")
			writeTable(&b, []string{"Genre", "Share"}, rows)
		}

		if recs := r.MarketInsights.GapAnalysis.Recommendations; len(recs) > 0 {
			rows := make([][]string, 0, len(recs))
			for _, g := range recs {
				rows = append(rows, []string{g.Category, fmt.Sprintf("%.2f", g.GapSize), strings.Join(g.MissingGenres, ", ")})
			}
			b.WriteString("<h3>Recommended categories</h3>\n")
			writeTable(&b, []string{"Category", "Gap", "Missing genres"}, rows)
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("  </body>\n</html>\n")
	return subject, b.String()
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range header {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, col := range row {
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(col))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
}

func plainText(reports []*pipeline.MarketReport) string {
	var b strings.Builder
	for _, r := range reports {
		if r.MarketInsights == nil {
			fmt.Fprintf(&b, "%s: no playlists found\n", r.MarketCode)
			continue
		}
		s := r.MarketInsights.Summary
		fmt.Fprintf(&b, "%s: opportunity score %.2f, %d tracks, %d genres, gaps: %s\n",
			r.MarketCode, s.OpportunityScore, s.TotalTracks, s.UniqueGenres, strings.Join(s.KeyGaps, ", "))
	}
	return b.String()
}
