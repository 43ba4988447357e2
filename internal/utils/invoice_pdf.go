package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"mercato_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateReceiptQR encode la référence de paiement en QR base64 prêt à
// mettre dans <img src="...">
func GenerateReceiptQR(order models.Order) (string, error) {
	payload := fmt.Sprintf("MERCATO\nCommande:%d\nMontant:EUR%s\nRef:%s",
		order.OrderNumber, order.TotalAmount.StringFixed(2), order.PaymentIntentID)

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateInvoicePDF rend la facture HTML dans un Chrome headless et
// l'imprime en PDF. Nécessite un Chrome disponible sur la machine.
func GenerateInvoicePDF(order models.Order, items []models.OrderItem, productNames map[int64]string) ([]byte, error) {
	qrBase64, err := GenerateReceiptQR(order)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}

	html := invoiceHTML(order, items, productNames, qrBase64)
	dataURL := "data:text/html;charset=utf-8," + url.PathEscape(html)

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

func invoiceHTML(order models.Order, items []models.OrderItem, productNames map[int64]string, qrBase64 string) string {
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

	paidAt := ""
	if order.PaidAt != nil {
		paidAt = order.PaidAt.Format("02/01/2006 15:04")
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Facture n°%d</title>
	<style>
		body { font-family: Arial, sans-serif; padding: 40px; color: #333; }
		table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
		th, td { padding: 8px; border: 1px solid #ddd; text-align: left; }
		th { background-color: #f0f0f0; }
		.total { font-weight: bold; }
	</style>
</head>
<body>
	<h1>Facture n°%d</h1>
	<p>Date de paiement : %s</p>
	<table>
		<thead>
			<tr><th>Produit</th><th>Quantité</th><th>Prix unitaire</th><th>Total</th></tr>
		</thead>
		<tbody>%s</tbody>
		<tfoot>
			<tr class="total"><td colspan="3">Total</td><td>%s€</td></tr>
		</tfoot>
	</table>
	<img src="%s" width="128" height="128" alt="QR reçu">
	<p>Merci pour votre commande.<br><strong>L'équipe Mercato</strong></p>
</body>
</html>`, order.OrderNumber, order.OrderNumber, paidAt, rows.String(), order.TotalAmount.StringFixed(2), qrBase64)
}
