package utils

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/spf13/viper"
)

var ErrMailNotConfigured = errors.New("smtp is not configured")

type EmailLine struct {
	Name     string
	Quantity int
	Price    string
}

type EmailData struct {
	Name      string
	Message   string
	ActionURL string
	LogoURL   string
	OrderID   string
	Total     string
	Lines     []EmailLine
}

func RenderEmail(templatePath string, data EmailData) (string, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

func SendEmail(emailTo string, emailSubject string, data EmailData, templatePath string) error {
	address := viper.GetString("SMTP_ADDRESS")
	from := viper.GetString("FROM_EMAIL")
	if address == "" || from == "" {
		return ErrMailNotConfigured
	}

	body, err := RenderEmail(templatePath, data)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		from,
		emailTo,
		emailSubject,
		body,
	)

	auth := smtp.PlainAuth(
		"",
		from,
		viper.GetString("FROM_EMAIL_PASSWORD"),
		viper.GetString("FROM_EMAIL_SMTP"),
	)

	if err := smtp.SendMail(address, auth, from, []string{emailTo}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
