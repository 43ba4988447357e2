package models

// CartItem est une ligne du panier telle qu'envoyée par le client.
// Sérialisé tel quel dans les métadonnées de la session Stripe : le webhook
// ne peut retrouver le contenu du panier que par ce canal, le format est donc
// un contrat externe à ne pas modifier.
type CartItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}
