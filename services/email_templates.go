package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"campus-events-backend/models"
	"campus-events-backend/utils"
)

type emailData struct {
	EventName      string
	TeamName       string
	Members        models.Roster
	Amount         string
	RegistrationID string
	PaymentID      string
	Reason         string
	FrontendURL    string
}

const receiptHTML = `<h2>Inscription confirmée ✅</h2>
<p>Votre inscription à <strong>{{.EventName}}</strong> est confirmée.</p>
{{if .TeamName}}<p>Équipe : <strong>{{.TeamName}}</strong></p>{{end}}
<ul>{{range .Members}}<li>{{.Name}}{{if .Email}} ({{.Email}}){{end}}</li>{{end}}</ul>
<p>Montant : {{.Amount}}</p>
{{if .PaymentID}}<p>Référence de paiement : {{.PaymentID}}</p>{{end}}
<p>N° d'inscription : {{.RegistrationID}}</p>
<p><a href="{{.FrontendURL}}/registrations/{{.RegistrationID}}">Voir mon inscription</a></p>`

const receiptText = `Inscription confirmée

Votre inscription à {{.EventName}} est confirmée.
{{if .TeamName}}Équipe : {{.TeamName}}
{{end}}{{range .Members}}- {{.Name}}
{{end}}Montant : {{.Amount}}
{{if .PaymentID}}Référence de paiement : {{.PaymentID}}
{{end}}N° d'inscription : {{.RegistrationID}}
`

const failureHTML = `<h2>Paiement refusé ❌</h2>
<p>Le paiement de votre inscription à <strong>{{.EventName}}</strong> n'a pas abouti.</p>
{{if .Reason}}<p>Motif : {{.Reason}}</p>{{end}}
<p>N° d'inscription : {{.RegistrationID}}</p>
<p>Contactez l'organisation si le problème persiste.</p>`

const failureText = `Paiement refusé

Le paiement de votre inscription à {{.EventName}} n'a pas abouti.
{{if .Reason}}Motif : {{.Reason}}
{{end}}N° d'inscription : {{.RegistrationID}}
`

var (
	receiptHTMLTmpl = htmltemplate.Must(htmltemplate.New("receipt").Parse(receiptHTML))
	receiptTextTmpl = texttemplate.Must(texttemplate.New("receipt").Parse(receiptText))
	failureHTMLTmpl = htmltemplate.Must(htmltemplate.New("failure").Parse(failureHTML))
	failureTextTmpl = texttemplate.Must(texttemplate.New("failure").Parse(failureText))
)

func render(kind string, data emailData) (subject, html, text string, err error) {
	var hb, tb bytes.Buffer
	switch kind {
	case models.TaskFailureNotice:
		subject = fmt.Sprintf("Paiement refusé : %s", data.EventName)
		err = failureHTMLTmpl.Execute(&hb, data)
		if err == nil {
			err = failureTextTmpl.Execute(&tb, data)
		}
	default:
		subject = fmt.Sprintf("Confirmation d'inscription : %s", data.EventName)
		err = receiptHTMLTmpl.Execute(&hb, data)
		if err == nil {
			err = receiptTextTmpl.Execute(&tb, data)
		}
	}
	if err != nil {
		return "", "", "", fmt.Errorf("rendu du modèle %s: %w", kind, err)
	}
	return subject, hb.String(), tb.String(), nil
}

func newEmailData(reg *models.Registration, eventName, currency, frontendURL string) emailData {
	return emailData{
		EventName:      eventName,
		TeamName:       reg.TeamName,
		Members:        reg.TeamMembers,
		Amount:         utils.FormatAmount(reg.TotalFee, currency),
		RegistrationID: reg.ID.Hex(),
		PaymentID:      reg.PaymentID,
		Reason:         reg.FailureReason,
		FrontendURL:    frontendURL,
	}
}

const otpHTML = `<h2>Votre code de vérification</h2>
<p>Bonjour {{.Name}},</p>
<p>Votre code est : <strong style="font-size:20px">{{.Code}}</strong></p>
<p>Il expire dans {{.Minutes}} minutes.</p>`

const otpText = `Bonjour {{.Name}},

Votre code de vérification est : {{.Code}}
Il expire dans {{.Minutes}} minutes.
`

var (
	otpHTMLTmpl = htmltemplate.Must(htmltemplate.New("otp").Parse(otpHTML))
	otpTextTmpl = texttemplate.Must(texttemplate.New("otp").Parse(otpText))
)

// OTPEnvelope construit l'email contenant le code de vérification du compte
func OTPEnvelope(to, name, code string, ttl time.Duration) (models.Envelope, error) {
	data := struct {
		Name    string
		Code    string
		Minutes int
	}{Name: name, Code: code, Minutes: int(ttl.Minutes())}

	var hb, tb bytes.Buffer
	if err := otpHTMLTmpl.Execute(&hb, data); err != nil {
		return models.Envelope{}, fmt.Errorf("rendu du modèle otp: %w", err)
	}
	if err := otpTextTmpl.Execute(&tb, data); err != nil {
		return models.Envelope{}, fmt.Errorf("rendu du modèle otp: %w", err)
	}
	return models.Envelope{
		To:      to,
		Subject: "Code de vérification Campus Events",
		HTML:    hb.String(),
		Text:    tb.String(),
	}, nil
}
