package http

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	sessionNotFoundText = "Sesión no encontrada."
	emptyCartText       = "No hay items en el carrito para esta sesión."
)

var payPage = template.Must(template.New("pay").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Página de Pago - Demo</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
        .header { text-align: center; color: #2c3e50; }
        .cart-summary { background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0; }
        .item { padding: 10px 0; border-bottom: 1px solid #ddd; }
        .total { font-size: 1.5em; font-weight: bold; color: #e74c3c; text-align: right; margin-top: 15px; }
        .demo-notice { background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; border-radius: 5px; margin: 20px 0; }
        .btn { background: #3498db; color: white; padding: 15px 30px; border: none; border-radius: 5px; font-size: 1.1em; cursor: not-allowed; }
    </style>
</head>
<body>
    <div class="header">
        <h1>🛒 Página de Pago</h1>
        <p>Sesión: {{.SessionID}}</p>
    </div>
    <div class="cart-summary">
        <h2>Resumen de tu pedido:</h2>
        {{- range .Cart.Items}}
        <div class="item">
            <strong>{{.Name}}</strong> (SKU: {{.SKU}})<br>
            Cantidad: {{.Quantity}} - Subtotal: {{.PriceTotal}}
        </div>
        {{- end}}
        <div class="total">Total a pagar: {{.Cart.Total}}</div>
    </div>
    <div class="demo-notice">
        <strong>⚠️ DEMO:</strong> Esta es una página de pago de demostración.
        En un entorno real, aquí se integraría con un procesador de pagos
        como Stripe, PayPal, o la pasarela de pago de tu preferencia.
    </div>
    <div style="text-align: center;">
        <button class="btn">Procesar Pago (Demo)</button>
    </div>
</body>
</html>
`))

type payPageData struct {
	SessionID string
	Cart      *domain.CartView
}

// PaymentPage renders the demo receipt for a session's cart. The session's
// status is not checked, so a closed session still shows its receipt.
func (h *ChatHandler) PaymentPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	parsed, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, sessionNotFoundText, http.StatusNotFound)
		return
	}
	sessionID := parsed.String()

	cart, err := h.chat.PaymentSummary(ctx, sessionID)
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		http.Error(w, sessionNotFoundText, http.StatusNotFound)
		return
	case errors.Is(err, service.ErrEmptyCart):
		http.Error(w, emptyCartText, http.StatusNotFound)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "payment page failed",
			slog.String("session_id", sessionID),
			slog.Any("err", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := payPage.Execute(w, payPageData{SessionID: sessionID, Cart: cart}); err != nil {
		slog.ErrorContext(r.Context(), "render payment page", slog.Any("err", err))
	}
}
