package service

// Fixed reply texts shown to shoppers.
const (
	IntroMessage = "¡Hola! Soy tu asistente de compras. Puedo ayudarte con:\n" +
		"• 'ver ofertas' - Ver productos destacados\n" +
		"• 'buscar [producto]' - Buscar productos\n" +
		"• 'agregar [SKU] x2' - Agregar al carrito\n" +
		"• 'carrito' - Ver tu carrito\n" +
		"• 'pagar' - Proceder al pago\n\n" +
		"¿En qué puedo ayudarte hoy?"

	HelpMessage = "🤔 No entiendo tu mensaje. Puedo ayudarte con:\n" +
		"• \"ver ofertas\" - Ver productos destacados\n" +
		"• \"buscar zapatillas\" - Buscar productos\n" +
		"• \"agregar ZAP-001 x2\" - Agregar al carrito\n" +
		"• \"carrito\" - Ver tu carrito\n" +
		"• \"pagar\" - Proceder al pago"

	offersMessage         = "🏷️ Aquí tienes nuestras ofertas destacadas:"
	searchEmptyMessage    = "Por favor especifica qué producto quieres buscar. Ejemplo: \"buscar zapatillas\""
	searchFoundFormat     = "🔍 Encontré %d producto(s) para \"%s\":"
	searchNotFoundFormat  = "😔 No encontré productos para \"%s\". Intenta con otro término de búsqueda."
	addedFormat           = "✅ Agregado al carrito: %dx %s (%s c/u)"
	skuNotFoundFormat     = "❌ Producto con SKU \"%s\" no encontrado. Usa \"ver ofertas\" para ver productos disponibles."
	invalidQuantityFormat = "❌ La cantidad debe estar entre 1 y %d."
	cartMessage           = "🛒 Tu carrito actual:"
	cartEmptyMessage      = "🛒 Tu carrito está vacío. Usa \"ver ofertas\" para explorar productos."
	paymentReadyMessage   = "💳 Tu enlace de pago está listo:"
	paymentEmptyMessage   = "🛒 Tu carrito está vacío. Agrega productos antes de proceder al pago."
	didYouMeanMessage     = "🔍 ¿Te refieres a alguno de estos productos?"
)
