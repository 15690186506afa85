package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/hki-dev/hki-crm/internal/entity"
)

func NewEmailSender(host string, port int, user, password, from, salesInbox string) *EmailSender {
	return &EmailSender{
		Host:       host,
		Port:       port,
		User:       user,
		Password:   password,
		From:       from,
		SalesInbox: salesInbox,
	}
}

// SendHighValueAlert tells the sales inbox a lead just got enrolled into
// the nurture campaign.
func (s *EmailSender) SendHighValueAlert(lead *entity.Lead, contactID int, campaignID string) error {
	score := "-"
	if lead.Score != nil {
		score = strconv.FormatFloat(*lead.Score, 'f', -1, 64)
	}

	data := HighValueAlertData{
		Name:       fmt.Sprintf("%s %s", lead.FirstName, lead.LastName),
		Email:      lead.Email,
		Score:      score,
		Stage:      lead.CRMStatus,
		CampaignID: campaignID,
		ContactID:  contactID,
	}

	tmplPath := filepath.Join("templates", "high_value_alert.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parse alert template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("render alert template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.SalesInbox)
	m.SetHeader("Subject", fmt.Sprintf("🔥 High-value lead enrolled: %s", lead.Email))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	return nil
}
