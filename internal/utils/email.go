package utils

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"mercato_back_end/internal/config"
	"mercato_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// EmailSender envoie les confirmations de commande avec la facture en pièce
// jointe.
type EmailSender struct {
	Config *config.Config
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	return &EmailSender{Config: cfg}
}

// SendOrderConfirmation envoie l'e-mail de confirmation. La facture PDF est
// jointe quand sa génération réussit, l'e-mail part sans elle sinon.
func (s *EmailSender) SendOrderConfirmation(order models.Order, items []models.OrderItem, productNames map[int64]string, to string) error {
	if s.Config.SMTPHost == "" {
		log.Println("⚠️ SMTP non configuré, e-mail de confirmation ignoré")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.Config.EmailFrom); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Confirmation de votre commande n°%d", order.OrderNumber))
	msg.SetBodyString(mail.TypeTextHTML, OrderConfirmationHTML(order, items, productNames))

	if pdf, err := GenerateInvoicePDF(order, items, productNames); err != nil {
		log.Printf("⚠️ Facture PDF non générée pour la commande %d : %v", order.ID, err)
	} else {
		msg.AttachReader(fmt.Sprintf("facture_%d.pdf", order.OrderNumber), bytes.NewReader(pdf))
	}

	client, err := mail.NewClient(s.Config.SMTPHost,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(s.Config.SMTPUsername),
		mail.WithPassword(s.Config.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// OrderConfirmationHTML génère le HTML de confirmation de commande
func OrderConfirmationHTML(order models.Order, items []models.OrderItem, productNames map[int64]string) string {
	var rows strings.Builder
	for _, item := range items {
		rows.WriteString(fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s€</td>
				<td>%s€</td>
			</tr>`,
			productNames[item.ProductID],
			item.Quantity,
			item.UnitPrice.StringFixed(2),
			item.Total().StringFixed(2)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande n°%d</h2>
		<p>Bonjour,</p>
		<p>Votre paiement a été confirmé avec succès.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%s€</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Mercato</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, rows.String(), order.TotalAmount.StringFixed(2))
}
