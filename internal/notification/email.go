package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const siteName = "Mentozy"

// Email is one outbound message with both bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// BookingEmailData fills the booking templates.
type BookingEmailData struct {
	RecipientName   string
	CounterpartName string
	When            string
	Note            string
}

func (d BookingEmailData) noteOrDefault() string {
	if d.Note == "" {
		return "No notes added."
	}
	return d.Note
}

// BuildStudentBookingEmail is sent to the student after a request is stored.
func BuildStudentBookingEmail(data BookingEmailData) (Email, error) {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.RecipientName)
	fmt.Fprintf(&text, "Your session with %s has been successfully booked.\n\n", data.CounterpartName)
	fmt.Fprintf(&text, "Date & Time: %s\n", data.When)
	fmt.Fprintf(&text, "Note: %s\n\n", data.noteOrDefault())
	text.WriteString("We look forward to seeing you grow!\n")

	email := Email{Subject: siteName + ": Booking Confirmed!", TextBody: text.String()}
	html, err := render(studentHTML, data)
	if err != nil {
		return email, err
	}
	email.HTMLBody = html
	return email, nil
}

// BuildMentorBookingEmail is sent to the mentor after a request is stored.
func BuildMentorBookingEmail(data BookingEmailData) (Email, error) {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.RecipientName)
	fmt.Fprintf(&text, "%s has booked a session with you.\n\n", data.CounterpartName)
	fmt.Fprintf(&text, "Date & Time: %s\n", data.When)
	fmt.Fprintf(&text, "Note: %s\n\n", data.noteOrDefault())
	text.WriteString("Please log in to your dashboard to view details.\n")

	email := Email{Subject: siteName + ": New Booking Received!", TextBody: text.String()}
	html, err := render(mentorHTML, data)
	if err != nil {
		return email, err
	}
	email.HTMLBody = html
	return email, nil
}

// render executes an HTML template. On error the email still carries its text
// body, so callers may send it without HTML.
func render(tmpl *template.Template, data BookingEmailData) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		BookingEmailData
		SiteName string
		NoteText string
	}{data, siteName, data.noteOrDefault()})
	if err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

var (
	studentHTML = template.Must(template.New("student").Parse(layoutStart + `
      <h1 style="color: #4F46E5;">Booking Confirmed!</h1>
      <p>Hi {{.RecipientName}},</p>
      <p>Your session with <strong>{{.CounterpartName}}</strong> has been successfully booked.</p>
      <p><strong>Date &amp; Time:</strong> {{.When}}</p>
      <p><strong>Note:</strong> {{.NoteText}}</p>
      <p>We look forward to seeing you grow!</p>` + layoutEnd))

	mentorHTML = template.Must(template.New("mentor").Parse(layoutStart + `
      <h1 style="color: #4F46E5;">New Session Booked</h1>
      <p>Hi {{.RecipientName}},</p>
      <p><strong>{{.CounterpartName}}</strong> has booked a session with you.</p>
      <p><strong>Date &amp; Time:</strong> {{.When}}</p>
      <p><strong>Note:</strong> {{.NoteText}}</p>
      <p>Please log in to your dashboard to view details.</p>` + layoutEnd))
)

const layoutStart = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; background-color: #f3f4f6;">
  <div style="max-width: 480px; margin: 40px auto; padding: 32px; background-color: #ffffff; border-radius: 8px; font-family: Arial, sans-serif; color: #333;">`

const layoutEnd = `
      <p>Best,<br/>Team {{.SiteName}}</p>
  </div>
</body>
</html>`
