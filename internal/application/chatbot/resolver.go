package chatbot

import "strings"

// Intent intención detectada en un mensaje.
type Intent string

const (
	IntentHelp           Intent = "help"
	IntentLowStock       Intent = "low_stock"
	IntentTopProducts    Intent = "top_products"
	IntentInventoryValue Intent = "inventory_value"
	IntentSalesToday     Intent = "sales_today"
	IntentProfit         Intent = "profit"
	IntentPrice          Intent = "price"
	IntentStock          Intent = "stock"
	IntentUnknown        Intent = "unknown"
)

type rule struct {
	intent  Intent
	phrases [][]string
}

func phrases(list ...string) [][]string {
	out := make([][]string, 0, len(list))
	for _, p := range list {
		out = append(out, strings.Fields(p))
	}
	return out
}

// Orden = prioridad: la primera regla que coincide gana.
var rules = []rule{
	{IntentHelp, phrases("ayuda", "help", "comandos", "que puedes hacer", "que sabes hacer")},
	{IntentLowStock, phrases("bajo stock", "poco stock", "stock bajo", "low stock", "agotado", "agotados", "por agotarse", "reponer", "reabastecer")},
	{IntentTopProducts, phrases("mas vendido", "mas vendidos", "top", "best seller", "best sellers", "mas populares", "top products")},
	{IntentInventoryValue, phrases("valor del inventario", "valor inventario", "inventario vale", "vale el inventario", "inventory value", "valor total")},
	{IntentSalesToday, phrases("hoy", "today")},
	{IntentProfit, phrases("ganancia", "ganancias", "utilidad", "utilidades", "profit", "ganado")},
	{IntentPrice, phrases("precio", "cuanto cuesta", "cuesta", "price", "vale")},
	{IntentStock, phrases("stock", "cuantos quedan", "cuantas quedan", "quedan", "existencias", "inventario de", "hay de")},
}

// palabras que no forman parte del nombre de un producto
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`el la los las lo un una unos unas de del al a en y o que
		cual cuales cuanto cuanta cuantos cuantas como hay tiene tienes tenemos queda quedan
		es son esta estan me mi por favor dime decir saber quiero precio cuesta vale stock
		existencias inventario unidades unidad the of how much many is are what price left
		in stock do we have`) {
		stopwords[w] = struct{}{}
	}
}

// Detect devuelve la intención del mensaje y las palabras restantes (candidatas a nombre de producto).
func Detect(message string) (Intent, []string) {
	tokens := Normalize(message)
	if len(tokens) == 0 {
		return IntentHelp, nil
	}
	for _, r := range rules {
		for _, p := range r.phrases {
			if containsPhrase(tokens, p) {
				return r.intent, productTerms(tokens, r)
			}
		}
	}
	return IntentUnknown, productTerms(tokens, rule{})
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, w := range phrase {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

func productTerms(tokens []string, r rule) []string {
	keywords := map[string]struct{}{}
	for _, p := range r.phrases {
		for _, w := range p {
			keywords[w] = struct{}{}
		}
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := stopwords[t]; ok {
			continue
		}
		if _, ok := keywords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
